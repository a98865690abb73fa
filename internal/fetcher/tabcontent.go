// Package fetcher holds the per-category content downloaders. Every fetcher
// is stateless per call: it fetches or evicts one course's content for its
// category and reports failures as typed errors, leaving the fatality
// decision to the sync orchestrator.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/common"
	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/storage/filecache"
)

const exportArtifactName = "export.zip"

// TabContentFetcher downloads one content tab (discussions, assignments,
// quizzes) through the bulk content-export API: submit a job, poll it on a
// fixed delay within a bounded retry budget, then download the result.
type TabContentFetcher struct {
	tab   entity.TabType
	api   *api.Client
	cache *filecache.FileCache
	cfg   *config.SyncConfig
	log   *slog.Logger
}

func NewTabContentFetcher(tab entity.TabType, client *api.Client, cache *filecache.FileCache, cfg *config.SyncConfig, log *slog.Logger) *TabContentFetcher {
	return &TabContentFetcher{
		tab:   tab,
		api:   client,
		cache: cache,
		cfg:   cfg,
		log:   log.With(slog.String("item", "TabContentFetcher"), slog.String("tab", string(tab))),
	}
}

func (f *TabContentFetcher) TabType() entity.TabType {
	return f.tab
}

func (f *TabContentFetcher) FetchContent(ctx context.Context, courseID string) error {
	// Drop leftovers of the previous export so a re-sync never serves a mix
	// of old and new artifacts.
	if err := f.cache.EvictTab(courseID, f.tab); err != nil {
		return err
	}

	job, err := f.api.SubmitTabExport(ctx, courseID, f.tab)
	if err != nil {
		return err
	}

	job, err = f.awaitJob(ctx, courseID, job)
	if err != nil {
		return err
	}

	body, _, err := f.api.Download(ctx, job.AttachmentURL)
	if err != nil {
		return fmt.Errorf("cannot download %s export for course %s: %w", f.tab, courseID, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("cannot read %s export for course %s: %w", f.tab, courseID, err)
	}

	if err := f.cache.WriteTabContent(courseID, f.tab, exportArtifactName, data); err != nil {
		return err
	}

	f.log.Info("Tab content downloaded", slog.String("course_id", courseID), slog.Int("size", len(data)))

	return nil
}

// awaitJob polls the export job until it finishes or the retry budget runs
// out. The inter-poll delay honors context cancellation.
func (f *TabContentFetcher) awaitJob(ctx context.Context, courseID string, job *api.ExportJob) (*api.ExportJob, error) {
	for attempt := 0; attempt < f.cfg.JobPollRetries; attempt++ {
		if job.Finished() {
			if job.Failed() {
				return nil, fmt.Errorf("%s export job %s failed for course %s", f.tab, job.ID, courseID)
			}

			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(f.cfg.JobPollInterval)):
		}

		var err error
		job, err = f.api.GetExportJob(ctx, courseID, job.ID)
		if err != nil {
			return nil, err
		}
	}

	return nil, common.ErrJobPollBudget
}

func (f *TabContentFetcher) CleanContent(ctx context.Context, courseID string) error {
	return f.cache.EvictTab(courseID, f.tab)
}
