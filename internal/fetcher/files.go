package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/storage/filecache"
)

// FilesFetcher streams course files into the cache and evicts the ones that
// fell out of the selection.
type FilesFetcher struct {
	api   *api.Client
	cache *filecache.FileCache
	log   *slog.Logger
}

func NewFilesFetcher(client *api.Client, cache *filecache.FileCache, log *slog.Logger) *FilesFetcher {
	return &FilesFetcher{
		api:   client,
		cache: cache,
		log:   log.With(slog.String("item", "FilesFetcher")),
	}
}

// DownloadFile fetches one file and reports fractional progress while the
// body streams to disk. The expected size from the selection wins over the
// transport's content length because pre-signed replies often omit it.
func (f *FilesFetcher) DownloadFile(ctx context.Context, courseID string, file entity.File, onProgress func(float32)) error {
	body, contentLength, err := f.api.Download(ctx, file.URL)
	if err != nil {
		return fmt.Errorf("cannot download file %s: %w", file.FileID, err)
	}
	defer body.Close()

	size := file.Size
	if size <= 0 {
		size = contentLength
	}

	if err := f.cache.WriteFile(courseID, file.FileID, file.FileName, size, body, onProgress); err != nil {
		return fmt.Errorf("cannot cache file %s: %w", file.FileID, err)
	}

	return nil
}

// RemoveUnavailableFiles deletes cached files of the course that are not part
// of the given selection anymore.
func (f *FilesFetcher) RemoveUnavailableFiles(ctx context.Context, courseID string, keepIDs []string) error {
	return f.cache.RemoveUnavailableFiles(courseID, keepIDs)
}

// CleanContent drops every cached file of the course.
func (f *FilesFetcher) CleanContent(ctx context.Context, courseID string) error {
	return f.cache.EvictTab(courseID, entity.TabFiles)
}
