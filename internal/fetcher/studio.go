package fetcher

import (
	"context"
	"log/slog"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/storage/filecache"
	"github.com/jgivc/coursecache/internal/util"
)

// StudioFetcher syncs embedded studio media for the whole course list after
// the per-course downloads settle. Per-course metadata failures are logged
// and skipped so one broken course cannot sink the media of the others;
// downloads run one at a time because media files dwarf everything else.
type StudioFetcher struct {
	api   *api.Client
	cache *filecache.FileCache
	log   *slog.Logger
}

func NewStudioFetcher(client *api.Client, cache *filecache.FileCache, log *slog.Logger) *StudioFetcher {
	return &StudioFetcher{
		api:   client,
		cache: cache,
		log:   log.With(slog.String("item", "StudioFetcher")),
	}
}

func (f *StudioFetcher) Fetch(ctx context.Context, courseIDs []string) error {
	items := f.collectMediaItems(ctx, courseIDs)

	keepIDs := make([]string, 0, len(items))
	for _, item := range items {
		keepIDs = append(keepIDs, item.ID)
	}

	// Drop stale media before downloading so disk pressure never peaks with
	// both generations present.
	if err := f.cache.RemoveUnavailableStudioMedia(keepIDs); err != nil {
		f.log.Error("Cannot remove stale studio media", slog.Any("error", err))
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := f.download(ctx, item); err != nil {
			f.log.Error("Cannot download studio media",
				slog.String("media_id", item.ID), slog.Any("error", err))
		}
	}

	return nil
}

func (f *StudioFetcher) collectMediaItems(ctx context.Context, courseIDs []string) []api.StudioMediaItem {
	seen := make(map[string]struct{})
	var items []api.StudioMediaItem

	for _, courseID := range courseIDs {
		courseItems, err := f.api.GetStudioMediaItems(ctx, courseID)
		if err != nil {
			f.log.Error("Cannot get studio media list",
				slog.String("course_id", courseID), slog.Any("error", err))

			continue
		}

		for _, item := range courseItems {
			if _, exists := seen[item.ID]; exists {
				continue
			}

			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
	}

	return items
}

func (f *StudioFetcher) download(ctx context.Context, item api.StudioMediaItem) error {
	body, _, err := f.api.Download(ctx, item.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	name := util.SafeFileName(item.Title)
	if name == "unnamed" {
		name = item.ID
	}

	return f.cache.WriteStudioMedia(item.ID, name, body)
}
