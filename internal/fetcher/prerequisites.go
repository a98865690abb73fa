package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jgivc/coursecache/internal/adapter/api"
	"github.com/jgivc/coursecache/internal/storage/filecache"
)

const (
	brandThemeArtifact = "brand_theme.json"
	brandLogoArtifact  = "brand_logo"
	courseListArtifact = "courses.json"
)

// BrandThemeFetcher caches the institution theme so offline pages keep their
// branding. Failures are reported but the orchestrator treats them as
// non-fatal.
type BrandThemeFetcher struct {
	api   *api.Client
	cache *filecache.FileCache
	log   *slog.Logger
}

func NewBrandThemeFetcher(client *api.Client, cache *filecache.FileCache, log *slog.Logger) *BrandThemeFetcher {
	return &BrandThemeFetcher{
		api:   client,
		cache: cache,
		log:   log.With(slog.String("item", "BrandThemeFetcher")),
	}
}

func (f *BrandThemeFetcher) Fetch(ctx context.Context) error {
	theme, err := f.api.GetBrandTheme(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("cannot marshal brand theme: %w", err)
	}

	if err := f.cache.WriteShared(brandThemeArtifact, data); err != nil {
		return err
	}

	if theme.LogoURL == "" {
		return nil
	}

	body, _, err := f.api.Download(ctx, theme.LogoURL)
	if err != nil {
		return fmt.Errorf("cannot download brand logo: %w", err)
	}
	defer body.Close()

	logo, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("cannot read brand logo: %w", err)
	}

	return f.cache.WriteShared(brandLogoArtifact, logo)
}

// CourseListFetcher caches the full course list so the all-courses screen
// works offline, including courses selected for sync that are not on the
// dashboard.
type CourseListFetcher struct {
	api   *api.Client
	cache *filecache.FileCache
	log   *slog.Logger
}

func NewCourseListFetcher(client *api.Client, cache *filecache.FileCache, log *slog.Logger) *CourseListFetcher {
	return &CourseListFetcher{
		api:   client,
		cache: cache,
		log:   log.With(slog.String("item", "CourseListFetcher")),
	}
}

func (f *CourseListFetcher) Fetch(ctx context.Context) error {
	courses, err := f.api.GetCourses(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("cannot marshal course list: %w", err)
	}

	f.log.Info("Course list downloaded", slog.Int("count", len(courses)))

	return f.cache.WriteShared(courseListArtifact, data)
}
