package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/adapter/pageadapter"
	"github.com/jgivc/coursecache/internal/common"
	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/storage/filecache"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testAPIClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return api.NewClient(&config.APIConfig{
		BaseURL: srv.URL,
		Token:   "secret",
		Timeout: config.Duration(5 * time.Second),
	}, testLogger())
}

func testCache() (*filecache.FileCache, afero.Fs) {
	fs := afero.NewMemMapFs()
	cache := filecache.NewWithFS(fs, &config.CacheConfig{RootDir: "/cache"}, testLogger())

	return cache, fs
}

func newTestPageAdapter(t *testing.T) *pageadapter.PageAdapter {
	t.Helper()

	adapter, err := pageadapter.New()
	require.NoError(t, err)

	return adapter
}

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		JobPollInterval: config.Duration(time.Millisecond),
		JobPollRetries:  5,
	}
}

func TestTabContentFetcherExportFlow(t *testing.T) {
	var polls int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses/c1/content_exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"created"}`)
	})
	mux.HandleFunc("GET /api/v1/courses/c1/content_exports/j1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			fmt.Fprint(w, `{"id":"j1","workflow_state":"exporting","progress":50}`)

			return
		}

		fmt.Fprint(w, `{"id":"j1","workflow_state":"exported","attachment_url":"/exports/j1.zip"}`)
	})
	mux.HandleFunc("GET /exports/j1.zip", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "zip content")
	})

	cache, fs := testCache()
	fetcher := NewTabContentFetcher(entity.TabAssignments, testAPIClient(t, mux), cache, testSyncConfig(), testLogger())

	require.NoError(t, fetcher.FetchContent(context.Background(), "c1"))

	data, err := afero.ReadFile(fs, "/cache/course-c1/assignments/export.zip")
	require.NoError(t, err)
	require.Equal(t, "zip content", string(data))
	require.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestTabContentFetcherCleansStaleArtifacts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses/c1/content_exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"exported","attachment_url":"/exports/j1.zip"}`)
	})
	mux.HandleFunc("GET /exports/j1.zip", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "fresh zip")
	})

	cache, fs := testCache()
	require.NoError(t, afero.WriteFile(fs, "/cache/course-c1/assignments/stale.zip", []byte("old"), 0o644))

	fetcher := NewTabContentFetcher(entity.TabAssignments, testAPIClient(t, mux), cache, testSyncConfig(), testLogger())
	require.NoError(t, fetcher.FetchContent(context.Background(), "c1"))

	exists, err := afero.Exists(fs, "/cache/course-c1/assignments/stale.zip")
	require.NoError(t, err)
	require.False(t, exists)

	data, err := afero.ReadFile(fs, "/cache/course-c1/assignments/export.zip")
	require.NoError(t, err)
	require.Equal(t, "fresh zip", string(data))
}

func TestTabContentFetcherFailedJob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses/c1/content_exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"created"}`)
	})
	mux.HandleFunc("GET /api/v1/courses/c1/content_exports/j1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"failed"}`)
	})

	cache, _ := testCache()
	fetcher := NewTabContentFetcher(entity.TabQuizzes, testAPIClient(t, mux), cache, testSyncConfig(), testLogger())

	require.Error(t, fetcher.FetchContent(context.Background(), "c1"))
}

func TestTabContentFetcherPollBudget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses/c1/content_exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"created"}`)
	})
	mux.HandleFunc("GET /api/v1/courses/c1/content_exports/j1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"j1","workflow_state":"exporting"}`)
	})

	cache, _ := testCache()
	fetcher := NewTabContentFetcher(entity.TabDiscussions, testAPIClient(t, mux), cache, testSyncConfig(), testLogger())

	err := fetcher.FetchContent(context.Background(), "c1")
	require.True(t, errors.Is(err, common.ErrJobPollBudget))
}

func TestTabContentFetcherExportWithoutJobID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses/c1/content_exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	cache, _ := testCache()
	fetcher := NewTabContentFetcher(entity.TabAssignments, testAPIClient(t, mux), cache, testSyncConfig(), testLogger())

	err := fetcher.FetchContent(context.Background(), "c1")
	require.True(t, errors.Is(err, common.ErrNoJobIDReturned))
}

func TestPagesFetcherFrontPageMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/courses/c1/front_page", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"no front page"}`)
	})

	cache, fs := testCache()
	adapter := newTestPageAdapter(t)
	fetcher := NewPagesFetcher(testAPIClient(t, mux), adapter, cache, testLogger())

	// A course without a front page is nothing to do, not a failure.
	require.NoError(t, fetcher.FetchContent(context.Background(), "c1"))

	exists, err := afero.DirExists(fs, "/cache/course-c1/pages")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestPagesFetcherStoresRenderedPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/courses/c1/pages/week-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"week-1","title":"Week 1","body":"# Welcome"}`)
	})

	cache, fs := testCache()
	fetcher := NewPagesFetcher(testAPIClient(t, mux), newTestPageAdapter(t), cache, testLogger())

	require.NoError(t, fetcher.FetchPage(context.Background(), "c1", "week-1"))

	data, err := afero.ReadFile(fs, "/cache/course-c1/pages/week-1.html")
	require.NoError(t, err)
	require.Contains(t, string(data), "<h1")
	require.Contains(t, string(data), "Welcome")
	require.Contains(t, string(data), "<title>Week 1</title>")
}
