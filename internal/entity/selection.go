package entity

import "strings"

type SelectionKind int

const (
	SelectionCourse SelectionKind = iota
	SelectionTab
	SelectionFile
)

// Selection addresses a single node in the tree. All state mutations flowing
// through the sync funnel are expressed with one of these so the mutation
// path stays uniform.
type Selection struct {
	Kind    SelectionKind
	EntryID string
	TabID   string
	FileID  string
}

func CourseSelection(entryID string) Selection {
	return Selection{Kind: SelectionCourse, EntryID: entryID}
}

func TabSelection(entryID, tabID string) Selection {
	return Selection{Kind: SelectionTab, EntryID: entryID, TabID: tabID}
}

func FileSelection(entryID, fileID string) Selection {
	return Selection{Kind: SelectionFile, EntryID: entryID, FileID: fileID}
}

// NodeID is the id of the addressed node itself, used as the persistence key.
func (s Selection) NodeID() string {
	switch s.Kind {
	case SelectionTab:
		return s.TabID
	case SelectionFile:
		return s.FileID
	default:
		return s.EntryID
	}
}

// Key is a stable persistence field name for the addressed node.
func (s Selection) Key() string {
	switch s.Kind {
	case SelectionTab:
		return strings.Join([]string{"tab", s.EntryID, s.TabID}, "/")
	case SelectionFile:
		return strings.Join([]string{"file", s.EntryID, s.FileID}, "/")
	default:
		return strings.Join([]string{"course", s.EntryID}, "/")
	}
}

// IsAdditionalContentTab reports whether the selection addresses the
// additional-content tab of its entry.
func (s Selection) IsAdditionalContentTab(entries []*CourseEntry) bool {
	if s.Kind != SelectionTab {
		return false
	}

	for _, entry := range entries {
		if entry.ID != s.EntryID {
			continue
		}

		if tab := entry.Tab(s.TabID); tab != nil {
			return tab.Type == TabAdditionalContent
		}
	}

	return false
}
