package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func float32Ptr(v float32) *float32 {
	return &v
}

func testEntry() *CourseEntry {
	return &CourseEntry{
		ID:             "entry1",
		CourseID:       "course1",
		Name:           "Biology",
		SelectionState: PartiallySelected,
		Tabs: []Tab{
			{ID: "tab-files", Type: TabFiles, SelectionState: Selected},
			{ID: "tab-assignments", Type: TabAssignments, SelectionState: Selected},
			{ID: "tab-pages", Type: TabPages, SelectionState: Deselected},
		},
		Files: []File{
			{ID: "f1", FileID: "101", SelectionState: Selected},
			{ID: "f2", FileID: "102", SelectionState: Selected},
			{ID: "f3", FileID: "103", SelectionState: Deselected},
		},
	}
}

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name     string
		children []State
		expected StateKind
	}{
		{
			name:     "Scenario 1: Error wins over everything",
			children: []State{Downloaded(), Errored(), Loading(nil)},
			expected: StateError,
		},
		{
			name:     "Scenario 2: Loading wins over downloaded",
			children: []State{Downloaded(), Loading(float32Ptr(0.5))},
			expected: StateLoading,
		},
		{
			name:     "Scenario 3: Idle counts as loading",
			children: []State{Downloaded(), Idle()},
			expected: StateLoading,
		},
		{
			name:     "Scenario 4: All downloaded",
			children: []State{Downloaded(), Downloaded()},
			expected: StateDownloaded,
		},
		{
			name:     "Scenario 5: No children aggregates to downloaded",
			children: nil,
			expected: StateDownloaded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Aggregate(tc.children).Kind)
		})
	}
}

func TestSelectionCount(t *testing.T) {
	entry := testEntry()

	// Two selected tabs plus two selected files, minus one so the files tab
	// and its files do not count twice.
	require.Equal(t, 3, entry.SelectionCount())

	entry.Files = nil
	require.Equal(t, 2, entry.SelectionCount())
}

func TestSyncableFiles(t *testing.T) {
	entry := testEntry()
	files := entry.SyncableFiles()
	require.Len(t, files, 2)

	entry.SelectionState = Selected
	require.Len(t, entry.SyncableFiles(), 3)
}

func TestProgress(t *testing.T) {
	entry := testEntry()

	// Nothing finished yet.
	require.Equal(t, float32(0), entry.Progress())

	entry.UpdateFileState("f1", Downloaded())
	entry.UpdateFileState("f2", LoadingProgress(0.5))

	// Two selected files and one non-file selected tab: (1 + 0.5 + 0) / 3.
	require.InDelta(t, 0.5, entry.Progress(), 0.001)

	entry.UpdateTabState("tab-assignments", Downloaded())
	require.InDelta(t, 0.8333, entry.Progress(), 0.001)

	entry.UpdateFileState("f2", Downloaded())
	require.InDelta(t, 1.0, entry.Progress(), 0.001)
}

func TestHasError(t *testing.T) {
	entry := testEntry()
	require.False(t, entry.HasError())

	entry.UpdateFileState("f2", Errored())
	require.True(t, entry.HasError())
	require.True(t, entry.HasFileError())

	entry.UpdateFileState("f2", Downloaded())
	require.False(t, entry.HasError())

	entry.RecordAdditionalContentResult(true)
	require.False(t, entry.HasError())

	entry.RecordAdditionalContentResult(false)
	require.True(t, entry.HasError())
	require.True(t, entry.HasAdditionalContentError())

	entry.ClearAdditionalContentResults()
	require.False(t, entry.HasError())
}

func TestMarkOutstandingAsFailed(t *testing.T) {
	entry := testEntry()
	entry.UpdateCourseState(Loading(nil))
	entry.UpdateTabState("tab-files", Loading(nil))
	entry.UpdateTabState("tab-assignments", Downloaded())
	entry.UpdateFileState("f1", Downloaded())
	entry.UpdateFileState("f2", LoadingProgress(0.7))

	entry.MarkOutstandingAsFailed()

	require.Equal(t, StateError, entry.State.Kind)
	require.Equal(t, StateError, entry.Tab("tab-files").State.Kind)
	require.Equal(t, StateDownloaded, entry.Tab("tab-assignments").State.Kind)
	require.Equal(t, StateDownloaded, entry.File("f1").State.Kind)
	require.Equal(t, StateError, entry.File("f2").State.Kind)
}

func TestResetForNewRun(t *testing.T) {
	entry := testEntry()
	entry.UpdateCourseState(Errored())
	entry.UpdateTabState("tab-files", Errored())
	entry.UpdateTabState("tab-assignments", Downloaded())
	entry.UpdateFileState("f1", Downloaded())
	entry.UpdateFileState("f2", Errored())
	entry.RecordAdditionalContentResult(false)

	reset := ResetForNewRun([]*CourseEntry{entry})
	require.Len(t, reset, 1)

	got := reset[0]
	require.Equal(t, StateLoading, got.State.Kind)
	require.Equal(t, StateLoading, got.Tab("tab-files").State.Kind)
	require.Equal(t, StateDownloaded, got.Tab("tab-assignments").State.Kind)
	require.Equal(t, StateDownloaded, got.File("f1").State.Kind)
	require.Equal(t, StateLoading, got.File("f2").State.Kind)
	require.False(t, got.HasAdditionalContentError())

	// The input tree is untouched.
	require.Equal(t, StateError, entry.State.Kind)
	require.True(t, entry.HasAdditionalContentError())
}

func TestResetForNewRunKeepsDownloadedCourse(t *testing.T) {
	entry := testEntry()
	entry.UpdateCourseState(Downloaded())
	entry.UpdateTabState("tab-files", Downloaded())

	reset := ResetForNewRun([]*CourseEntry{entry})
	require.Equal(t, StateDownloaded, reset[0].State.Kind)
	require.Equal(t, StateDownloaded, reset[0].Tab("tab-files").State.Kind)
}

func TestCloneIsDeep(t *testing.T) {
	entry := testEntry()
	entry.UpdateFileState("f1", LoadingProgress(0.3))

	cpy := entry.Clone()
	require.NotSame(t, entry.File("f1").State.Progress, cpy.File("f1").State.Progress)

	cpy.UpdateFileState("f1", Downloaded())
	cpy.UpdateTabState("tab-files", Errored())

	require.Equal(t, StateLoading, entry.File("f1").State.Kind)
	require.NotEqual(t, StateError, entry.Tab("tab-files").State.Kind)
}

func TestSelectedTabsSkipsAdditionalContent(t *testing.T) {
	entry := testEntry()
	entry.Tabs = append(entry.Tabs, Tab{
		ID:             "tab-additional",
		Type:           TabAdditionalContent,
		SelectionState: Selected,
	})

	tabs := entry.SelectedTabs()
	require.ElementsMatch(t, []TabType{TabFiles, TabAssignments}, tabs)
	require.True(t, entry.HasSelectedTab(TabFiles))
	require.False(t, entry.HasSelectedTab(TabPages))
}
