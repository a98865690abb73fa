package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/storage/filecache"
	"github.com/jgivc/coursecache/internal/util"
)

// ContentFetcher is the uniform per-tab contract the modules fetcher uses to
// route module items that are served by a whole-tab API.
type ContentFetcher interface {
	TabType() entity.TabType
	FetchContent(ctx context.Context, courseID string) error
	CleanContent(ctx context.Context, courseID string) error
}

// ModulesFetcher downloads the modules tab. Some courses hide every tab
// except Modules; their content is then only reachable through module items.
// Items whose category can be fetched as a whole tab (assignments,
// discussions) are routed to that tab's fetcher, the rest (files, pages,
// quizzes) are fetched one by one.
type ModulesFetcher struct {
	api      *api.Client
	files    *FilesFetcher
	pages    *PagesFetcher
	cache    *filecache.FileCache
	fetchers map[entity.TabType]ContentFetcher
	log      *slog.Logger
}

func NewModulesFetcher(
	client *api.Client,
	files *FilesFetcher,
	pages *PagesFetcher,
	cache *filecache.FileCache,
	contentFetchers []ContentFetcher,
	log *slog.Logger,
) *ModulesFetcher {
	byTab := make(map[entity.TabType]ContentFetcher, len(contentFetchers))
	for _, f := range contentFetchers {
		byTab[f.TabType()] = f
	}

	return &ModulesFetcher{
		api:      client,
		files:    files,
		pages:    pages,
		cache:    cache,
		fetchers: byTab,
		log:      log.With(slog.String("item", "ModulesFetcher")),
	}
}

// FetchModules downloads module content for one course. Tabs listed in
// alreadySyncing are skipped on the by-list path because the orchestrator is
// downloading them anyway.
func (f *ModulesFetcher) FetchModules(ctx context.Context, courseID string, alreadySyncing []entity.TabType) error {
	items, err := f.api.GetModuleItems(ctx, courseID)
	if err != nil {
		return err
	}

	syncing := make(map[entity.TabType]struct{}, len(alreadySyncing))
	for _, tab := range alreadySyncing {
		syncing[tab] = struct{}{}
	}

	byListTabs := make(map[entity.TabType]struct{})
	var byIDItems []api.ModuleItem

	for _, item := range items {
		tab := item.AssociatedTab()
		if tab == "" {
			continue
		}

		switch tab {
		case entity.TabAssignments, entity.TabDiscussions:
			if _, exists := syncing[tab]; !exists {
				byListTabs[tab] = struct{}{}
			}
		default:
			byIDItems = append(byIDItems, item)
		}
	}

	for tab := range byListTabs {
		fetcher, exists := f.fetchers[tab]
		if !exists {
			continue
		}

		if err := fetcher.FetchContent(ctx, courseID); err != nil {
			return fmt.Errorf("cannot fetch %s for module items: %w", tab, err)
		}
	}

	for _, item := range byIDItems {
		if err := f.fetchItem(ctx, courseID, item); err != nil {
			return fmt.Errorf("cannot fetch module item %s: %w", item.ID, err)
		}
	}

	return nil
}

// artifactID is the stable cache identity of a module item: the backend's
// content ID when the listing carries one, otherwise a digest of the item URL
// so re-syncs overwrite instead of piling up.
func artifactID(item api.ModuleItem) string {
	if item.ContentID != "" {
		return item.ContentID
	}

	return util.GetIDFromString(&item.URL)
}

func (f *ModulesFetcher) fetchItem(ctx context.Context, courseID string, item api.ModuleItem) error {
	id := artifactID(item)

	switch item.AssociatedTab() {
	case entity.TabFiles:
		file := entity.File{
			ID:       item.ID,
			FileID:   id,
			FileName: "module-file-" + id,
			URL:      item.URL,
		}

		return f.files.DownloadFile(ctx, courseID, file, nil)
	case entity.TabPages:
		return f.pages.FetchPage(ctx, courseID, item.PageSlug)
	case entity.TabQuizzes:
		// Quizzes have no per-item payload beyond their listing; keep a
		// reference so the offline module list can render the row.
		data := []byte(strconv.Quote(item.ContentID))

		return f.cache.WriteTabContent(courseID, entity.TabQuizzes, "module-quiz-"+id+".json", data)
	default:
		return nil
	}
}

func (f *ModulesFetcher) CleanContent(ctx context.Context, courseID string) error {
	return f.cache.EvictTab(courseID, entity.TabModules)
}
