package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/adapter/pageadapter"
	"github.com/jgivc/coursecache/internal/common"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/storage/filecache"
)

const frontPageSlug = "front-page"

// PagesFetcher renders course pages into offline HTML documents.
type PagesFetcher struct {
	api     *api.Client
	adapter *pageadapter.PageAdapter
	cache   *filecache.FileCache
	log     *slog.Logger
}

func NewPagesFetcher(client *api.Client, adapter *pageadapter.PageAdapter, cache *filecache.FileCache, log *slog.Logger) *PagesFetcher {
	return &PagesFetcher{
		api:     client,
		adapter: adapter,
		cache:   cache,
		log:     log.With(slog.String("item", "PagesFetcher")),
	}
}

func (f *PagesFetcher) TabType() entity.TabType {
	return entity.TabPages
}

// FetchContent downloads the course front page. Courses without a front page
// answer 404, which counts as nothing to do rather than a failure.
func (f *PagesFetcher) FetchContent(ctx context.Context, courseID string) error {
	page, err := f.api.GetFrontPage(ctx, courseID)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}

		return err
	}

	return f.storePage(courseID, page)
}

// FetchPage downloads a single page by slug, used for module items.
func (f *PagesFetcher) FetchPage(ctx context.Context, courseID, slug string) error {
	page, err := f.api.GetPage(ctx, courseID, slug)
	if err != nil {
		return err
	}

	return f.storePage(courseID, page)
}

func (f *PagesFetcher) storePage(courseID string, page *api.Page) error {
	html, meta, err := f.adapter.Render(page.Body, page.Title)
	if err != nil {
		return err
	}

	slug := page.Slug
	if slug == "" || meta.FrontPage || page.FrontPage {
		slug = frontPageSlug
	}

	if err := f.cache.WritePage(courseID, slug, html); err != nil {
		return err
	}

	f.log.Info("Page downloaded", slog.String("course_id", courseID), slog.String("slug", slug))

	return nil
}

func (f *PagesFetcher) CleanContent(ctx context.Context, courseID string) error {
	return f.cache.EvictTab(courseID, entity.TabPages)
}
