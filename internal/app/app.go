package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/adapter/pageadapter"
	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/fetcher"
	"github.com/jgivc/coursecache/internal/repository/progress"
	"github.com/jgivc/coursecache/internal/service/background"
	"github.com/jgivc/coursecache/internal/service/notify"
	syncsvc "github.com/jgivc/coursecache/internal/service/sync"
	"github.com/jgivc/coursecache/internal/storage/filecache"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 20
	logMaxBackups = 3
)

type App struct {
	cfgPath string
	cfg     *config.Config
	syncer  *syncsvc.Syncer
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(opt)
	ctx := context.Background()
	if _, err = rdb.Ping(ctx).Result(); err != nil {
		panic(err)
	}

	log := a.newLogger()
	a.log = log

	apiClient := api.NewClient(&a.cfg.API, log)

	adapter, err := pageadapter.New()
	if err != nil {
		panic(err)
	}

	cache := filecache.New(&a.cfg.Cache, log)

	files := fetcher.NewFilesFetcher(apiClient, cache, log)
	pages := fetcher.NewPagesFetcher(apiClient, adapter, cache, log)

	contentFetchers := []fetcher.ContentFetcher{
		fetcher.NewTabContentFetcher(entity.TabDiscussions, apiClient, cache, &a.cfg.Sync, log),
		fetcher.NewTabContentFetcher(entity.TabAssignments, apiClient, cache, &a.cfg.Sync, log),
		fetcher.NewTabContentFetcher(entity.TabQuizzes, apiClient, cache, &a.cfg.Sync, log),
		fetcher.NewTabContentFetcher(entity.TabPages, apiClient, cache, &a.cfg.Sync, log),
	}

	modules := fetcher.NewModulesFetcher(apiClient, files, pages, cache, contentFetchers, log)

	syncFetchers := make([]syncsvc.ContentFetcher, 0, len(contentFetchers))
	for _, f := range contentFetchers {
		syncFetchers = append(syncFetchers, f)
	}

	a.syncer = syncsvc.New(&a.cfg.Sync, syncsvc.Deps{
		ContentFetchers: syncFetchers,
		Files:           files,
		Modules:         modules,
		FrontPage:       pages,
		BrandTheme:      fetcher.NewBrandThemeFetcher(apiClient, cache, log),
		CourseList:      fetcher.NewCourseListFetcher(apiClient, cache, log),
		Studio:          fetcher.NewStudioFetcher(apiClient, cache, log),
		Progress:        progress.New(rdb, log),
		Notifier:        notify.New(notify.NewLogSender(log), nil, log),
		Activity:        background.NewTimedActivity(time.Duration(a.cfg.Sync.MaxRunDuration), log),
		Evictor:         cache,
	}, log)

	log.Info("Application started", slog.String("config", a.cfgPath))
}

// Sync loads the selection file and runs one sync over it, logging course
// state transitions from the snapshot stream until the run ends.
func (a *App) Sync() {
	entries, err := LoadSelection(a.cfg.SelectionFile)
	if err != nil {
		a.log.Error("Cannot load selection", slog.Any("error", err))

		return
	}

	snapshots := a.syncer.Start(entries)

	last := make(map[string]string)
	for snapshot := range snapshots {
		for _, entry := range snapshot {
			state := entry.State.String()
			if last[entry.ID] == state {
				continue
			}

			last[entry.ID] = state
			a.log.Info("Course state",
				slog.String("course_id", entry.CourseID), slog.String("state", state))
		}
	}

	a.log.Info("Sync run ended", slog.String("status", a.syncer.Status().String()))
}

func (a *App) Cancel() {
	if err := a.syncer.Cancel(); err != nil {
		a.log.Warn("Cannot cancel sync", slog.Any("error", err))
	}
}

// Evict removes the cached content of the given courses.
func (a *App) Evict(courseIDs []string) {
	if err := a.syncer.Evict(courseIDs); err != nil {
		a.log.Error("Cannot evict courses", slog.Any("error", err))
	}
}

func (a *App) Stop() {
	if a.syncer != nil {
		if err := a.syncer.Cancel(); err == nil {
			a.log.Info("Active sync cancelled on shutdown")
		}
	}
}

func (a *App) newLogger() *slog.Logger {
	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}

	var w io.Writer = os.Stderr
	if a.cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   a.cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
		}
	}

	return slog.New(slog.NewTextHandler(w, lo))
}
