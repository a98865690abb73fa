package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jgivc/coursecache/internal/entity"
	"github.com/stretchr/testify/require"
)

func writeSelection(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "selection.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadSelection(t *testing.T) {
	path := writeSelection(t, `
courses:
  - course_id: "c1"
    name: Biology
    has_front_page: true
    everything: true
    tabs:
      - id: t-assign
        type: assignments
        name: Assignments
    files:
      - id: f1
        file_id: "101"
        file_name: notes.pdf
        url: /files/101/download
        size: 1024
  - course_id: "c2"
    name: History
    tabs:
      - id: t-files
        type: files
        name: Files
        selected: true
      - id: t-pages
        type: pages
        name: Pages
    files:
      - id: f2
        file_id: "201"
        file_name: a.pdf
        selected: true
      - id: f3
        file_id: "202"
        file_name: b.pdf
`)

	entries, err := LoadSelection(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	full := entries[0]
	require.Equal(t, "c1", full.ID)
	require.Equal(t, entity.Selected, full.SelectionState)
	require.True(t, full.IsFullContentSync())
	require.True(t, full.HasFrontPage)
	require.Equal(t, entity.Selected, full.Tabs[0].SelectionState)
	require.Equal(t, entity.Selected, full.Files[0].SelectionState)
	require.Equal(t, int64(1024), full.Files[0].Size)

	partial := entries[1]
	require.Equal(t, entity.PartiallySelected, partial.SelectionState)
	require.False(t, partial.IsFullContentSync())

	// Only one of two files is selected, so the files tab degrades to a
	// partial selection.
	require.Equal(t, entity.PartiallySelected, partial.TabOfType(entity.TabFiles).SelectionState)
	require.Equal(t, entity.Deselected, partial.TabOfType(entity.TabPages).SelectionState)
	require.Equal(t, entity.Selected, partial.File("f2").SelectionState)
	require.Equal(t, entity.Deselected, partial.File("f3").SelectionState)
	require.Len(t, partial.SyncableFiles(), 1)
}

func TestLoadSelectionRejectsMissingCourseID(t *testing.T) {
	path := writeSelection(t, `
courses:
  - name: Broken
`)

	_, err := LoadSelection(path)
	require.Error(t, err)
}

func TestLoadSelectionMissingFile(t *testing.T) {
	_, err := LoadSelection(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
