// Package sync orchestrates one offline content sync run: it fans courses and
// files out under fixed concurrency caps, funnels every state transition
// through a single mutate-persist-emit path and drives the interrupt, cancel
// and completion tails.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/jgivc/coursecache/internal/common"
	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
)

const (
	// snapshotBuffer bounds the snapshot stream; a slow subscriber loses old
	// snapshots, never new ones.
	snapshotBuffer = 8

	courseQueueBuffer = 64
	fileQueueBuffer   = 256

	resultErrorMessage = "some selected content could not be downloaded"
)

// ContentFetcher downloads or evicts one tab category for a course.
type ContentFetcher interface {
	TabType() entity.TabType
	FetchContent(ctx context.Context, courseID string) error
	CleanContent(ctx context.Context, courseID string) error
}

type FilesFetcher interface {
	DownloadFile(ctx context.Context, courseID string, file entity.File, onProgress func(float32)) error
	RemoveUnavailableFiles(ctx context.Context, courseID string, keepIDs []string) error
	CleanContent(ctx context.Context, courseID string) error
}

type ModulesFetcher interface {
	FetchModules(ctx context.Context, courseID string, alreadySyncing []entity.TabType) error
	CleanContent(ctx context.Context, courseID string) error
}

// FrontPageFetcher downloads just the course front page, used when the pages
// tab itself is not part of the run.
type FrontPageFetcher interface {
	FetchContent(ctx context.Context, courseID string) error
}

type PrerequisiteFetcher interface {
	Fetch(ctx context.Context) error
}

type StudioFetcher interface {
	Fetch(ctx context.Context, courseIDs []string) error
}

type ProgressWriter interface {
	SetInitialLoadingState(ctx context.Context, entries []*entity.CourseEntry) error
	SaveStateProgress(ctx context.Context, id string, sel entity.Selection, state entity.State) error
	SaveDownloadProgress(ctx context.Context, entries []*entity.CourseEntry) error
	SaveDownloadResult(ctx context.Context, isFinished bool, errMsg string) error
	MarkInProgressDownloadsAsFailed(ctx context.Context) error
	CleanUpPreviousDownloadProgress(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, itemCount int, hasError bool) error
	SendFailureNow(ctx context.Context) error
}

// Activity is the background execution lease of a run. onExpire fires when
// the OS-granted budget runs out before the run finishes.
type Activity interface {
	Start(onExpire func()) error
	Stop()
	StopAndWait()
}

type CourseEvictor interface {
	EvictCourse(courseID string) error
}

type RunStatus int

const (
	RunNotStarted RunStatus = iota
	RunActive
	RunCompleted
	RunCancelled
	RunInterrupted
)

func (s RunStatus) String() string {
	return [...]string{"not_started", "active", "completed", "cancelled", "interrupted"}[s]
}

// Deps collects everything a Syncer drives. Interfaces live on the consumer
// side so tests can substitute every collaborator.
type Deps struct {
	ContentFetchers []ContentFetcher
	Files           FilesFetcher
	Modules         ModulesFetcher
	FrontPage       FrontPageFetcher
	BrandTheme      PrerequisiteFetcher
	CourseList      PrerequisiteFetcher
	Studio          StudioFetcher
	Progress        ProgressWriter
	Notifier        Notifier
	Activity        Activity
	Evictor         CourseEvictor
}

type Syncer struct {
	cfg        *config.SyncConfig
	fetchers   map[entity.TabType]ContentFetcher
	files      FilesFetcher
	modules    ModulesFetcher
	frontPage  FrontPageFetcher
	brandTheme PrerequisiteFetcher
	courseList PrerequisiteFetcher
	studio     StudioFetcher
	progress   ProgressWriter
	notifier   Notifier
	activity   Activity
	evictor    CourseEvictor
	log        *slog.Logger

	runMu     gosync.Mutex
	status    RunStatus
	cancel    context.CancelFunc
	done      chan struct{}
	itemCount int

	// funnelMu serializes the mutate-persist-emit path so subscribers observe
	// transitions in the order they were persisted.
	funnelMu  gosync.Mutex
	accepting bool
	closed    bool
	out       chan []*entity.CourseEntry

	stateMu gosync.RWMutex
	entries []*entity.CourseEntry
}

func New(cfg *config.SyncConfig, deps Deps, log *slog.Logger) *Syncer {
	fetchers := make(map[entity.TabType]ContentFetcher, len(deps.ContentFetchers))
	for _, f := range deps.ContentFetchers {
		fetchers[f.TabType()] = f
	}

	return &Syncer{
		cfg:        cfg,
		fetchers:   fetchers,
		files:      deps.Files,
		modules:    deps.Modules,
		frontPage:  deps.FrontPage,
		brandTheme: deps.BrandTheme,
		courseList: deps.CourseList,
		studio:     deps.Studio,
		progress:   deps.Progress,
		notifier:   deps.Notifier,
		activity:   deps.Activity,
		evictor:    deps.Evictor,
		log:        log.With(slog.String("item", "Syncer")),
	}
}

// Start begins a sync run over the given selection and returns the snapshot
// stream for it. A run that is still active is cancelled first. The returned
// channel is closed when the run reaches any terminal outcome.
func (s *Syncer) Start(entries []*entity.CourseEntry) <-chan []*entity.CourseEntry {
	s.stopActiveRun()

	ctx, cancel := context.WithCancel(context.Background())
	reset := entity.ResetForNewRun(entries)
	out := make(chan []*entity.CourseEntry, snapshotBuffer)

	s.runMu.Lock()
	s.status = RunActive
	s.cancel = cancel
	s.done = make(chan struct{})
	s.itemCount = entity.TotalSelectionCount(reset)
	done := s.done
	s.runMu.Unlock()

	s.stateMu.Lock()
	s.entries = reset
	s.stateMu.Unlock()

	s.funnelMu.Lock()
	s.accepting = true
	s.closed = false
	s.out = out
	s.funnelMu.Unlock()

	go s.run(ctx, done)

	return out
}

// Cancel aborts the active run: downloads stop, the progress record is
// removed and no notification is sent. Partially downloaded content stays in
// the cache for the next run to reconcile.
func (s *Syncer) Cancel() error {
	if !s.transition(RunActive, RunCancelled) {
		return common.ErrNoActiveSync
	}

	s.log.Info("Sync cancelled")

	s.runMu.Lock()
	cancel := s.cancel
	done := s.done
	s.runMu.Unlock()

	s.stopAccepting()
	cancel()
	<-done

	if err := s.progress.CleanUpPreviousDownloadProgress(context.Background()); err != nil {
		s.log.Error("Cannot clean up download progress", slog.Any("error", err))
	}
	s.activity.StopAndWait()

	return nil
}

// Evict removes every cached artifact of the given courses, independent of
// any active run. A download already in flight for an evicted course may
// rewrite part of its directory afterward; the next run's eviction pass
// reconciles that.
func (s *Syncer) Evict(courseIDs []string) error {
	for _, id := range courseIDs {
		if err := s.evictor.EvictCourse(id); err != nil {
			return fmt.Errorf("cannot evict course %s: %w", id, err)
		}

		s.log.Info("Course evicted", slog.String("course_id", id))
	}

	return nil
}

func (s *Syncer) Status() RunStatus {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.status
}

func (s *Syncer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.closeOut()

	if err := s.activity.Start(s.handleInterrupt); err != nil {
		s.log.Error("Cannot start background activity", slog.Any("error", err))
	}

	if err := s.progress.CleanUpPreviousDownloadProgress(ctx); err != nil {
		s.log.Error("Cannot clean up previous download progress", slog.Any("error", err))
	}
	if err := s.progress.SetInitialLoadingState(ctx, s.snapshot()); err != nil {
		s.log.Error("Cannot save initial loading state", slog.Any("error", err))
	}
	s.emitCurrent()

	s.syncPrerequisites(ctx)

	entries := s.liveEntries()
	forEachLimit(ctx, entries, s.cfg.CourseConcurrency, courseQueueBuffer, s.downloadCourse)

	if ctx.Err() != nil {
		return
	}

	// Studio media syncs after every course settled so its heavyweight
	// downloads never compete with course content for bandwidth.
	courseIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		courseIDs = append(courseIDs, entry.CourseID)
	}
	if err := s.studio.Fetch(ctx, courseIDs); err != nil && ctx.Err() == nil {
		s.log.Error("Cannot sync studio media", slog.Any("error", err))
	}

	if ctx.Err() != nil {
		return
	}

	s.finish(ctx)
}

// syncPrerequisites caches branding and the course list up front. They are
// nice to have offline; their failures never fail the run.
func (s *Syncer) syncPrerequisites(ctx context.Context) {
	if err := s.brandTheme.Fetch(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("Cannot sync brand theme", slog.Any("error", err))
	}

	if err := s.courseList.Fetch(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("Cannot sync course list", slog.Any("error", err))
	}
}

func (s *Syncer) finish(ctx context.Context) {
	if !s.transition(RunActive, RunCompleted) {
		return
	}

	hasError := s.hasAnyError()
	errMsg := ""
	if hasError {
		errMsg = resultErrorMessage
	}

	if err := s.progress.SaveDownloadResult(ctx, true, errMsg); err != nil {
		s.log.Error("Cannot save download result", slog.Any("error", err))
	}

	s.runMu.Lock()
	itemCount := s.itemCount
	s.runMu.Unlock()

	if err := s.notifier.Send(ctx, itemCount, hasError); err != nil {
		s.log.Error("Cannot send completion notification", slog.Any("error", err))
	}

	s.activity.Stop()
	s.log.Info("Sync finished", slog.Bool("has_error", hasError))
}

func (s *Syncer) downloadCourse(ctx context.Context, entry *entity.CourseEntry) {
	log := s.log.With(slog.String("course_id", entry.CourseID))
	log.Info("Course sync started")

	s.setState(ctx, entity.CourseSelection(entry.ID), entity.Loading(nil), false)

	var wg gosync.WaitGroup

	for _, tabType := range entity.SyncableTabs {
		if tabType == entity.TabFiles || tabType == entity.TabModules {
			continue
		}

		wg.Add(1)
		go func(t entity.TabType) {
			defer wg.Done()
			s.downloadTabContent(ctx, entry, t)
		}(tabType)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.downloadFiles(ctx, entry)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.downloadModules(ctx, entry)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.downloadFrontPage(ctx, entry)
	}()

	wg.Wait()

	if ctx.Err() != nil {
		return
	}

	state := entity.Downloaded()
	if s.entryHasError(entry.ID) {
		state = entity.Errored()
	}

	// The buffered hidden-tab results commit to the additional-content row in
	// one final update, together with the course's terminal state.
	if tab := entry.TabOfType(entity.TabAdditionalContent); tab != nil {
		s.setState(ctx, entity.TabSelection(entry.ID, tab.ID), state, true)
	}
	s.setState(ctx, entity.CourseSelection(entry.ID), state, false)

	log.Info("Course sync finished", slog.String("state", state.String()))
}

// routeTab picks the state row a tab download reports under. On a full
// content sync a hidden category without its own row reports under the
// additional-content row.
func (s *Syncer) routeTab(entry *entity.CourseEntry, tabType entity.TabType) *entity.Tab {
	tab := entry.TabOfType(tabType)
	if tab == nil && entry.IsFullContentSync() {
		tab = entry.TabOfType(entity.TabAdditionalContent)
	}

	return tab
}

func (s *Syncer) downloadTabContent(ctx context.Context, entry *entity.CourseEntry, tabType entity.TabType) {
	fetcher, exists := s.fetchers[tabType]
	if !exists {
		return
	}

	tab := s.routeTab(entry, tabType)
	if tab == nil {
		return
	}

	if tab.SelectionState == entity.Deselected {
		if err := fetcher.CleanContent(ctx, entry.CourseID); err != nil {
			s.log.Error("Cannot clean tab content",
				slog.String("course_id", entry.CourseID), slog.String("tab", string(tabType)), slog.Any("error", err))
		}

		return
	}

	sel := entity.TabSelection(entry.ID, tab.ID)
	s.setState(ctx, sel, entity.Loading(nil), false)

	err := fetcher.FetchContent(ctx, entry.CourseID)
	switch {
	case err == nil:
		s.setState(ctx, sel, entity.Downloaded(), false)
	case ctx.Err() != nil:
		// Cancelled mid-fetch; no terminal state is written.
	case common.IsIgnorableTabError(err):
		s.log.Warn("Tab not fetchable, treated as downloaded",
			slog.String("course_id", entry.CourseID), slog.String("tab", string(tabType)), slog.Any("error", err))
		s.setState(ctx, sel, entity.Downloaded(), false)
	default:
		s.log.Error("Tab sync failed",
			slog.String("course_id", entry.CourseID), slog.String("tab", string(tabType)), slog.Any("error", err))
		s.setState(ctx, sel, entity.Errored(), false)
	}
}

func (s *Syncer) downloadFiles(ctx context.Context, entry *entity.CourseEntry) {
	tab := s.routeTab(entry, entity.TabFiles)

	if tab != nil && tab.SelectionState == entity.Deselected {
		if err := s.files.CleanContent(ctx, entry.CourseID); err != nil {
			s.log.Error("Cannot clean course files", slog.String("course_id", entry.CourseID), slog.Any("error", err))
		}

		return
	}

	files := entry.SyncableFiles()

	// Without a files tab row, or with nothing selected, no downloads run and
	// nothing cached is worth keeping.
	if tab == nil || len(files) == 0 {
		if err := s.files.RemoveUnavailableFiles(ctx, entry.CourseID, nil); err != nil {
			s.log.Error("Cannot remove unavailable files", slog.String("course_id", entry.CourseID), slog.Any("error", err))
		}

		if tab != nil {
			s.setState(ctx, entity.TabSelection(entry.ID, tab.ID), entity.Downloaded(), false)
		}

		return
	}

	keepIDs := make([]string, 0, len(files))
	for i := range files {
		keepIDs = append(keepIDs, files[i].FileID)
	}

	sel := entity.TabSelection(entry.ID, tab.ID)
	s.setState(ctx, sel, entity.Loading(nil), false)

	forEachLimit(ctx, files, s.cfg.FileConcurrency, fileQueueBuffer, func(ctx context.Context, file entity.File) {
		s.downloadSingleFile(ctx, entry, sel, file)
	})

	if ctx.Err() != nil {
		return
	}

	state := entity.Downloaded()
	if s.entryHasFileError(entry.ID) {
		state = entity.Errored()
	}
	s.setState(ctx, sel, state, false)

	// Files that fell out of the selection are evicted only after the
	// downloads settled, so a failed run never leaves the cache emptier than
	// it started.
	if err := s.files.RemoveUnavailableFiles(ctx, entry.CourseID, keepIDs); err != nil {
		s.log.Error("Cannot remove unavailable files", slog.String("course_id", entry.CourseID), slog.Any("error", err))
	}
}

func (s *Syncer) downloadSingleFile(ctx context.Context, entry *entity.CourseEntry, tabSel entity.Selection, file entity.File) {
	sel := entity.FileSelection(entry.ID, file.ID)
	s.setState(ctx, sel, entity.LoadingProgress(0), false)

	throttle := newProgressThrottle(time.Duration(s.cfg.ProgressThrottle), func(progress float32) {
		s.setState(ctx, sel, entity.LoadingProgress(progress), false)
		s.setState(ctx, tabSel, entity.LoadingProgress(s.entryProgress(entry.ID)), false)
	})
	defer throttle.Stop()

	err := s.files.DownloadFile(ctx, entry.CourseID, file, throttle.Send)
	throttle.Stop()

	switch {
	case err == nil:
		s.setState(ctx, sel, entity.Downloaded(), false)
	case ctx.Err() != nil:
	default:
		s.log.Error("File download failed",
			slog.String("course_id", entry.CourseID), slog.String("file_id", file.FileID), slog.Any("error", err))
		s.setState(ctx, sel, entity.Errored(), false)
	}
}

func (s *Syncer) downloadModules(ctx context.Context, entry *entity.CourseEntry) {
	tab := s.routeTab(entry, entity.TabModules)
	if tab == nil {
		return
	}

	if tab.SelectionState == entity.Deselected {
		if err := s.modules.CleanContent(ctx, entry.CourseID); err != nil {
			s.log.Error("Cannot clean modules content", slog.String("course_id", entry.CourseID), slog.Any("error", err))
		}

		return
	}

	sel := entity.TabSelection(entry.ID, tab.ID)
	s.setState(ctx, sel, entity.Loading(nil), false)

	err := s.modules.FetchModules(ctx, entry.CourseID, entry.SelectedTabs())
	switch {
	case err == nil:
		s.setState(ctx, sel, entity.Downloaded(), false)
	case ctx.Err() != nil:
	case common.IsIgnorableTabError(err):
		s.log.Warn("Modules not fetchable, treated as downloaded",
			slog.String("course_id", entry.CourseID), slog.Any("error", err))
		s.setState(ctx, sel, entity.Downloaded(), false)
	default:
		s.log.Error("Modules sync failed", slog.String("course_id", entry.CourseID), slog.Any("error", err))
		s.setState(ctx, sel, entity.Errored(), false)
	}
}

// downloadFrontPage fetches just the front page when the pages tab itself is
// not part of the run. It has no state row and cannot fail the course.
func (s *Syncer) downloadFrontPage(ctx context.Context, entry *entity.CourseEntry) {
	if !entry.HasFrontPage || entry.HasSelectedTab(entity.TabPages) {
		return
	}

	if err := s.frontPage.FetchContent(ctx, entry.CourseID); err != nil && ctx.Err() == nil {
		s.log.Warn("Cannot download front page", slog.String("course_id", entry.CourseID), slog.Any("error", err))
	}
}

// setState is the single funnel every state transition goes through: mutate
// the tree, persist, then emit a snapshot. Terminal updates addressed to the
// additional-content row are buffered on the entry instead, unless this is
// the final commit, so the visible row does not flicker while hidden tabs
// finish at different times.
func (s *Syncer) setState(ctx context.Context, sel entity.Selection, state entity.State, finalUpdate bool) {
	s.funnelMu.Lock()
	defer s.funnelMu.Unlock()

	if !s.accepting {
		return
	}

	s.stateMu.Lock()
	entry := s.findEntryLocked(sel.EntryID)
	if entry == nil {
		s.stateMu.Unlock()

		return
	}

	buffered := false
	switch sel.Kind {
	case entity.SelectionCourse:
		entry.UpdateCourseState(state)
	case entity.SelectionTab:
		if !finalUpdate && state.IsTerminal() && sel.IsAdditionalContentTab(s.entries) {
			entry.RecordAdditionalContentResult(state.Kind == entity.StateDownloaded)
			buffered = true
		} else {
			entry.UpdateTabState(sel.TabID, state)
		}
	case entity.SelectionFile:
		entry.UpdateFileState(sel.FileID, state)
	}

	var snapshot []*entity.CourseEntry
	if !buffered {
		snapshot = entity.CloneEntries(s.entries)
	}
	s.stateMu.Unlock()

	if buffered {
		return
	}

	// Persist before emitting so no subscriber ever observes a state that
	// could be lost on a crash.
	if err := s.progress.SaveStateProgress(ctx, sel.NodeID(), sel, state); err != nil && ctx.Err() == nil {
		s.log.Error("Cannot persist state progress", slog.String("key", sel.Key()), slog.Any("error", err))
	}
	if err := s.progress.SaveDownloadProgress(ctx, snapshot); err != nil && ctx.Err() == nil {
		s.log.Error("Cannot persist download progress", slog.Any("error", err))
	}

	s.emitLocked(snapshot)
}

// handleInterrupt is the background budget expiry path. Everything still in
// flight is marked failed, in memory and durably, and the failure notification
// goes out synchronously because the process may be suspended right after
// this callback returns.
func (s *Syncer) handleInterrupt() {
	if !s.transition(RunActive, RunInterrupted) {
		return
	}

	s.log.Warn("Sync interrupted by the operating system")

	ctx := context.Background()

	s.funnelMu.Lock()
	s.stateMu.Lock()
	for _, entry := range s.entries {
		entry.MarkOutstandingAsFailed()
	}
	snapshot := entity.CloneEntries(s.entries)
	s.stateMu.Unlock()

	if err := s.progress.MarkInProgressDownloadsAsFailed(ctx); err != nil {
		s.log.Error("Cannot mark downloads as failed", slog.Any("error", err))
	}
	if err := s.progress.SaveDownloadResult(ctx, true, common.ErrSyncInterrupted.Error()); err != nil {
		s.log.Error("Cannot save download result", slog.Any("error", err))
	}

	s.emitLocked(snapshot)
	s.accepting = false
	s.funnelMu.Unlock()

	if err := s.notifier.SendFailureNow(ctx); err != nil {
		s.log.Error("Cannot send failure notification", slog.Any("error", err))
	}

	s.runMu.Lock()
	cancel := s.cancel
	s.runMu.Unlock()
	cancel()

	s.closeOut()
}

// stopActiveRun silently cancels a still-active run so a new Start can take
// over. Unlike Cancel it keeps no ordering promise toward subscribers of the
// old stream beyond closing it.
func (s *Syncer) stopActiveRun() {
	if !s.transition(RunActive, RunCancelled) {
		return
	}

	s.runMu.Lock()
	cancel := s.cancel
	done := s.done
	s.runMu.Unlock()

	s.stopAccepting()
	cancel()
	<-done
	s.activity.StopAndWait()
}

// transition flips the run status from one value to another atomically,
// reporting whether it won the transition.
func (s *Syncer) transition(from, to RunStatus) bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.status != from {
		return false
	}
	s.status = to

	return true
}

func (s *Syncer) stopAccepting() {
	s.funnelMu.Lock()
	s.accepting = false
	s.funnelMu.Unlock()
}

func (s *Syncer) closeOut() {
	s.funnelMu.Lock()
	defer s.funnelMu.Unlock()

	s.accepting = false
	if !s.closed && s.out != nil {
		s.closed = true
		close(s.out)
	}
}

// emitLocked delivers a snapshot to the stream, dropping the oldest queued
// snapshot when a slow subscriber let the buffer fill up. Caller holds
// funnelMu.
func (s *Syncer) emitLocked(snapshot []*entity.CourseEntry) {
	if s.closed {
		return
	}

	for {
		select {
		case s.out <- snapshot:
			return
		default:
		}

		select {
		case <-s.out:
		default:
		}
	}
}

func (s *Syncer) emitCurrent() {
	s.funnelMu.Lock()
	defer s.funnelMu.Unlock()

	if !s.accepting {
		return
	}

	s.emitLocked(s.snapshot())
}

func (s *Syncer) snapshot() []*entity.CourseEntry {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return entity.CloneEntries(s.entries)
}

// liveEntries returns the live entry pointers of the run. Downloaders read
// only selection fields through them; state flows through setState.
func (s *Syncer) liveEntries() []*entity.CourseEntry {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	entries := make([]*entity.CourseEntry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

func (s *Syncer) findEntryLocked(entryID string) *entity.CourseEntry {
	for _, entry := range s.entries {
		if entry.ID == entryID {
			return entry
		}
	}

	return nil
}

func (s *Syncer) entryHasError(entryID string) bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if entry := s.findEntryLocked(entryID); entry != nil {
		return entry.HasError()
	}

	return false
}

func (s *Syncer) entryHasFileError(entryID string) bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if entry := s.findEntryLocked(entryID); entry != nil {
		return entry.HasFileError()
	}

	return false
}

func (s *Syncer) entryProgress(entryID string) float32 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if entry := s.findEntryLocked(entryID); entry != nil {
		return entry.Progress()
	}

	return 0
}

func (s *Syncer) hasAnyError() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return entity.HasAnyError(s.entries)
}
