package entity

import "fmt"

type StateKind int

const (
	StateIdle StateKind = iota
	StateLoading
	StateDownloaded
	StateError
)

func (k StateKind) String() string {
	return [...]string{"idle", "loading", "downloaded", "error"}[k]
}

// State is the download state of a single node in the course/tab/file tree.
// Progress is only meaningful while loading and may be nil when the fraction
// is unknown.
type State struct {
	Kind     StateKind
	Progress *float32
}

func Idle() State {
	return State{Kind: StateIdle}
}

func Loading(progress *float32) State {
	return State{Kind: StateLoading, Progress: progress}
}

func LoadingProgress(progress float32) State {
	return State{Kind: StateLoading, Progress: &progress}
}

func Downloaded() State {
	return State{Kind: StateDownloaded}
}

func Errored() State {
	return State{Kind: StateError}
}

// IsTerminal reports whether the node finished, successfully or not.
func (s State) IsTerminal() bool {
	return s.Kind == StateDownloaded || s.Kind == StateError
}

func (s State) String() string {
	if s.Kind == StateLoading && s.Progress != nil {
		return fmt.Sprintf("loading(%.2f)", *s.Progress)
	}

	return s.Kind.String()
}

// Equal compares kind and progress value, not progress pointer identity.
func (s State) Equal(other State) bool {
	if s.Kind != other.Kind {
		return false
	}

	if (s.Progress == nil) != (other.Progress == nil) {
		return false
	}

	if s.Progress != nil && *s.Progress != *other.Progress {
		return false
	}

	return true
}

// Aggregate computes a parent state from its children per the aggregation
// rule: error wins, then loading/idle, otherwise downloaded. An empty child
// list aggregates to downloaded.
func Aggregate(children []State) State {
	loading := false
	for _, child := range children {
		switch child.Kind {
		case StateError:
			return Errored()
		case StateLoading, StateIdle:
			loading = true
		}
	}

	if loading {
		return Loading(nil)
	}

	return Downloaded()
}
