package filecache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/jgivc/coursecache/internal/util"
	"github.com/spf13/afero"
)

const (
	coursePrefix = "course-"
	filesDir     = "files"
	sharedDir    = "shared"
	studioDir    = "studio"

	copyChunkSize = 256 * 1024

	dirPerm  = 0o755
	filePerm = 0o644
)

// FileCache owns the on-disk layout of synced content:
//
//	root/course-{id}/files/{fileID}/{fileName}
//	root/course-{id}/{tab}/...
//	root/shared/...
//	root/studio/{mediaID}/{fileName}
type FileCache struct {
	fs   afero.Fs
	root string
	log  *slog.Logger
}

func New(cfg *config.CacheConfig, log *slog.Logger) *FileCache {
	return NewWithFS(afero.NewOsFs(), cfg, log)
}

func NewWithFS(fs afero.Fs, cfg *config.CacheConfig, log *slog.Logger) *FileCache {
	return &FileCache{
		fs:   fs,
		root: cfg.RootDir,
		log:  log.With(slog.String("item", "FileCache")),
	}
}

func (c *FileCache) courseDir(courseID string) string {
	return filepath.Join(c.root, coursePrefix+courseID)
}

// WriteFile streams a course file into the cache, reporting fractional
// progress after every chunk. When size is unknown (<= 0) a single 1.0 is
// reported at the end.
func (c *FileCache) WriteFile(courseID, fileID, fileName string, size int64, r io.Reader, onProgress func(float32)) error {
	dir := filepath.Join(c.courseDir(courseID), filesDir, fileID)
	if err := c.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create file dir: %w", err)
	}

	path := filepath.Join(dir, util.SafeFileName(fileName))
	f, err := c.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("cannot create cache file: %w", err)
	}

	var written int64
	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				c.removeQuietly(path)

				return fmt.Errorf("cannot write cache file: %w", err)
			}

			written += int64(n)
			if onProgress != nil && size > 0 {
				onProgress(float32(written) / float32(size))
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			c.removeQuietly(path)

			return fmt.Errorf("cannot read download stream: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close cache file: %w", err)
	}

	if onProgress != nil {
		onProgress(1)
	}

	return nil
}

// WriteTabContent stores one artifact of a tab's exported content.
func (c *FileCache) WriteTabContent(courseID string, tab entity.TabType, name string, data []byte) error {
	dir := filepath.Join(c.courseDir(courseID), string(tab))
	if err := c.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create tab dir: %w", err)
	}

	path := filepath.Join(dir, util.SafeFileName(name))
	if err := afero.WriteFile(c.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("cannot write tab content: %w", err)
	}

	return nil
}

// WritePage stores a rendered page document under the pages tab.
func (c *FileCache) WritePage(courseID, slug, html string) error {
	return c.WriteTabContent(courseID, entity.TabPages, util.SafeFileName(slug)+".html", []byte(html))
}

// WriteShared stores content that is not tied to one course, e.g. the brand
// theme or the offline course list.
func (c *FileCache) WriteShared(name string, data []byte) error {
	dir := filepath.Join(c.root, sharedDir)
	if err := c.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create shared dir: %w", err)
	}

	if err := afero.WriteFile(c.fs, filepath.Join(dir, util.SafeFileName(name)), data, filePerm); err != nil {
		return fmt.Errorf("cannot write shared content: %w", err)
	}

	return nil
}

// WriteStudioMedia streams one studio media file into the shared studio area.
func (c *FileCache) WriteStudioMedia(mediaID, fileName string, r io.Reader) error {
	dir := filepath.Join(c.root, studioDir, util.SafeFileName(mediaID))
	if err := c.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create studio dir: %w", err)
	}

	path := filepath.Join(dir, util.SafeFileName(fileName))
	f, err := c.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("cannot create studio file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		c.removeQuietly(path)

		return fmt.Errorf("cannot write studio file: %w", err)
	}

	return f.Close()
}

// RemoveUnavailableFiles deletes cached files of a course whose id is no
// longer part of the current selection. Running it twice with the same
// selection deletes nothing the second time.
func (c *FileCache) RemoveUnavailableFiles(courseID string, keepIDs []string) error {
	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}

	dir := filepath.Join(c.courseDir(courseID), filesDir)
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		// Nothing cached yet for this course.
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, exists := keep[entry.Name()]; exists {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := c.fs.RemoveAll(path); err != nil {
			c.log.Error("Cannot remove stale file", slog.String("path", path), slog.Any("error", err))

			continue
		}

		c.log.Info("Removed stale file", slog.String("course_id", courseID), slog.String("file_id", entry.Name()))
	}

	return nil
}

// RemoveUnavailableStudioMedia deletes studio media no longer referenced by
// any synced course.
func (c *FileCache) RemoveUnavailableStudioMedia(keepIDs []string) error {
	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}

	dir := filepath.Join(c.root, studioDir)
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if _, exists := keep[entry.Name()]; exists {
			continue
		}

		if err := c.fs.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			c.log.Error("Cannot remove stale studio media", slog.String("media_id", entry.Name()), slog.Any("error", err))
		}
	}

	return nil
}

// EvictTab removes all cached content of one tab.
func (c *FileCache) EvictTab(courseID string, tab entity.TabType) error {
	if err := c.fs.RemoveAll(filepath.Join(c.courseDir(courseID), string(tab))); err != nil {
		return fmt.Errorf("cannot evict %s tab of course %s: %w", tab, courseID, err)
	}

	return nil
}

// EvictCourse removes every cached artifact of a course.
func (c *FileCache) EvictCourse(courseID string) error {
	if err := c.fs.RemoveAll(c.courseDir(courseID)); err != nil {
		return fmt.Errorf("cannot evict course %s: %w", courseID, err)
	}

	return nil
}

func (c *FileCache) removeQuietly(path string) {
	if err := c.fs.Remove(path); err != nil {
		c.log.Error("Cannot remove partial file", slog.String("path", path), slog.Any("error", err))
	}
}
