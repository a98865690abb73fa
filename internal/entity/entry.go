package entity

import "time"

type TabType string

const (
	TabFiles             TabType = "files"
	TabModules           TabType = "modules"
	TabDiscussions       TabType = "discussions"
	TabAssignments       TabType = "assignments"
	TabQuizzes           TabType = "quizzes"
	TabPages             TabType = "pages"
	TabAdditionalContent TabType = "additional_content"
)

// SyncableTabs are the tab types the engine can take offline. Files and
// modules have dedicated downloaders; the rest go through per-type content
// fetchers.
var SyncableTabs = []TabType{
	TabFiles,
	TabModules,
	TabDiscussions,
	TabAssignments,
	TabQuizzes,
	TabPages,
}

type SelectionState int

const (
	Deselected SelectionState = iota
	PartiallySelected
	Selected
)

func (s SelectionState) String() string {
	return [...]string{"deselected", "partially_selected", "selected"}[s]
}

// Tab is one row of a course's content list. A course may carry at most one
// additional-content tab collapsing all hidden tabs into a single visible row.
type Tab struct {
	ID             string  `yaml:"id"`
	Type           TabType `yaml:"type"`
	Name           string  `yaml:"name"`
	SelectionState SelectionState
	State          State
}

type File struct {
	ID             string `yaml:"id"`
	FileID         string `yaml:"file_id"`
	Name           string `yaml:"name"`
	FileName       string `yaml:"file_name"`
	URL            string `yaml:"url"`
	MIMEClass      string `yaml:"mime_class"`
	Size           int64  `yaml:"size"`
	UpdatedAt      time.Time
	SelectionState SelectionState
	State          State
}

// CourseEntry is the root node of one course's sync selection. Its State is
// always the aggregate of its tabs and files, except transiently while the
// whole course is being reset to loading.
type CourseEntry struct {
	ID             string
	CourseID       string
	Name           string
	HasFrontPage   bool
	SelectionState SelectionState
	Tabs           []Tab
	Files          []File
	State          State

	// Results of hidden-tab downloads routed under the additional-content
	// tab. They are buffered here instead of being written to the tab state
	// so the visible row does not flicker between loading and downloaded
	// while multiple hidden tabs finish at different times. The buffer is
	// committed once, when the course reaches its terminal state.
	additionalContentResults []bool
}

// IsFullContentSync reports whether the whole course was selected, as opposed
// to an explicit subset of tabs and files.
func (e *CourseEntry) IsFullContentSync() bool {
	return e.SelectionState == Selected
}

// Tab returns the tab with the given id, or nil.
func (e *CourseEntry) Tab(id string) *Tab {
	for i := range e.Tabs {
		if e.Tabs[i].ID == id {
			return &e.Tabs[i]
		}
	}

	return nil
}

// TabOfType returns the first tab of the given type, or nil.
func (e *CourseEntry) TabOfType(t TabType) *Tab {
	for i := range e.Tabs {
		if e.Tabs[i].Type == t {
			return &e.Tabs[i]
		}
	}

	return nil
}

// File returns the file with the given id, or nil.
func (e *CourseEntry) File(id string) *File {
	for i := range e.Files {
		if e.Files[i].ID == id {
			return &e.Files[i]
		}
	}

	return nil
}

// SelectedTabs returns the types of tabs that are fully or partially
// selected. The additional-content tab does not count.
func (e *CourseEntry) SelectedTabs() []TabType {
	var types []TabType
	for i := range e.Tabs {
		if e.Tabs[i].Type == TabAdditionalContent {
			continue
		}

		if e.Tabs[i].SelectionState == Selected || e.Tabs[i].SelectionState == PartiallySelected {
			types = append(types, e.Tabs[i].Type)
		}
	}

	return types
}

// HasSelectedTab reports whether the caller explicitly selected a tab of the
// given type.
func (e *CourseEntry) HasSelectedTab(t TabType) bool {
	for _, selected := range e.SelectedTabs() {
		if selected == t {
			return true
		}
	}

	return false
}

// SyncableFiles returns the files to download in this run: every file on a
// full-content sync, only the selected ones otherwise.
func (e *CourseEntry) SyncableFiles() []File {
	if e.IsFullContentSync() {
		return e.Files
	}

	var files []File
	for i := range e.Files {
		if e.Files[i].SelectionState == Selected {
			files = append(files, e.Files[i])
		}
	}

	return files
}

// SelectionCount is the number of content items taking part in this run,
// used for the completion notification.
func (e *CourseEntry) SelectionCount() int {
	tabs := len(e.SelectedTabs())
	files := 0
	for i := range e.Files {
		if e.Files[i].SelectionState == Selected {
			files++
		}
	}

	// The files tab and its selected files would otherwise count twice.
	if files > 0 {
		return tabs + files - 1
	}

	return tabs + files
}

// HasError reports whether any visible or hidden part of the course failed.
func (e *CourseEntry) HasError() bool {
	if e.State.Kind == StateError {
		return true
	}

	for i := range e.Tabs {
		if e.Tabs[i].State.Kind == StateError {
			return true
		}
	}

	return e.HasFileError() || e.HasAdditionalContentError()
}

func (e *CourseEntry) HasFileError() bool {
	for i := range e.Files {
		if e.Files[i].State.Kind == StateError {
			return true
		}
	}

	return false
}

func (e *CourseEntry) HasAdditionalContentError() bool {
	for _, ok := range e.additionalContentResults {
		if !ok {
			return true
		}
	}

	return false
}

// Progress is the combined fraction of selected file and tab downloads,
// ranging from 0 to 1. Tabs contribute either 0 or 1; files contribute their
// fractional progress. Files and additional-content tabs are excluded from
// the tab side so they are not counted twice.
func (e *CourseEntry) Progress() float32 {
	var total float32
	var count int

	for i := range e.Files {
		if e.Files[i].SelectionState != Selected && !e.IsFullContentSync() {
			continue
		}

		count++
		switch e.Files[i].State.Kind {
		case StateDownloaded:
			total++
		case StateLoading:
			if p := e.Files[i].State.Progress; p != nil {
				total += *p
			}
		}
	}

	for i := range e.Tabs {
		if e.Tabs[i].Type == TabFiles || e.Tabs[i].Type == TabAdditionalContent {
			continue
		}

		if e.Tabs[i].SelectionState != Selected {
			continue
		}

		count++
		if e.Tabs[i].State.Kind == StateDownloaded {
			total++
		}
	}

	if count == 0 {
		return 0
	}

	return total / float32(count)
}

func (e *CourseEntry) UpdateCourseState(state State) {
	e.State = state
}

func (e *CourseEntry) UpdateTabState(id string, state State) {
	if tab := e.Tab(id); tab != nil {
		tab.State = state
	}
}

func (e *CourseEntry) UpdateFileState(id string, state State) {
	if file := e.File(id); file != nil {
		file.State = state
	}
}

func (e *CourseEntry) RecordAdditionalContentResult(successful bool) {
	e.additionalContentResults = append(e.additionalContentResults, successful)
}

func (e *CourseEntry) ClearAdditionalContentResults() {
	e.additionalContentResults = nil
}

// MarkOutstandingAsFailed rewrites every node that has not reached a terminal
// state as failed. The in-memory counterpart of the persistence-side bulk
// failure write on the interrupt path.
func (e *CourseEntry) MarkOutstandingAsFailed() {
	if !e.State.IsTerminal() {
		e.State = Errored()
	}

	for i := range e.Tabs {
		if !e.Tabs[i].State.IsTerminal() {
			e.Tabs[i].State = Errored()
		}
	}

	for i := range e.Files {
		if !e.Files[i].State.IsTerminal() {
			e.Files[i].State = Errored()
		}
	}
}

// Clone returns a deep copy safe to hand out as a read snapshot.
func (e *CourseEntry) Clone() *CourseEntry {
	cpy := *e
	cpy.Tabs = make([]Tab, len(e.Tabs))
	copy(cpy.Tabs, e.Tabs)
	cpy.Files = make([]File, len(e.Files))
	copy(cpy.Files, e.Files)
	cpy.additionalContentResults = make([]bool, len(e.additionalContentResults))
	copy(cpy.additionalContentResults, e.additionalContentResults)

	for i := range cpy.Tabs {
		cpy.Tabs[i].State = cloneState(cpy.Tabs[i].State)
	}
	for i := range cpy.Files {
		cpy.Files[i].State = cloneState(cpy.Files[i].State)
	}
	cpy.State = cloneState(cpy.State)

	return &cpy
}

func cloneState(s State) State {
	if s.Progress != nil {
		p := *s.Progress
		s.Progress = &p
	}

	return s
}

// CloneEntries deep-copies a whole tree snapshot.
func CloneEntries(entries []*CourseEntry) []*CourseEntry {
	out := make([]*CourseEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry.Clone()
	}

	return out
}

// ResetForNewRun prepares entries for a fresh sync: every node that is not
// already downloaded goes back to loading with unknown progress, and buffered
// additional-content results are dropped. Already downloaded nodes are kept
// as-is and will not be re-queued.
func ResetForNewRun(entries []*CourseEntry) []*CourseEntry {
	out := CloneEntries(entries)
	for _, entry := range out {
		entry.ClearAdditionalContentResults()

		if entry.State.Kind == StateDownloaded {
			continue
		}
		entry.UpdateCourseState(Loading(nil))

		for i := range entry.Tabs {
			if entry.Tabs[i].State.Kind != StateDownloaded {
				entry.Tabs[i].State = Loading(nil)
			}
		}

		for i := range entry.Files {
			if entry.Files[i].State.Kind != StateDownloaded {
				entry.Files[i].State = Loading(nil)
			}
		}
	}

	return out
}

// HasAnyError reports whether any entry in the tree carries an error.
func HasAnyError(entries []*CourseEntry) bool {
	for _, entry := range entries {
		if entry.HasError() {
			return true
		}
	}

	return false
}

// TotalSelectionCount sums the content items of every entry in the run.
func TotalSelectionCount(entries []*CourseEntry) int {
	var count int
	for _, entry := range entries {
		count += entry.SelectionCount()
	}

	return count
}
