package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jgivc/coursecache/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeyCurrentRun  = "cr" // STRING. ID of the run whose progress is current.
	KeyStateMap    = "sm" // HASH. sm:{runID} selection_key -> nodeState JSON.
	KeyRunProgress = "rp" // STRING. rp:{runID} -> runProgress JSON.
	KeyRunResult   = "rr" // STRING. rr:{runID} -> runResult JSON.

	KeySeparator = ":"
)

type nodeState struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Progress *float32 `json:"progress,omitempty"`
}

type runProgress struct {
	ItemCount int     `json:"item_count"`
	Progress  float32 `json:"progress"`
	HasError  bool    `json:"has_error"`
}

type runResult struct {
	IsFinished bool   `json:"is_finished"`
	Error      string `json:"error,omitempty"`
}

// Repository durably records node state transitions so a relaunch can
// reconstruct the last known sync state. Each run writes under its own run id;
// KeyCurrentRun points at the run considered current.
type Repository struct {
	cl    *redis.Client
	runID string
	log   *slog.Logger
}

func New(cl *redis.Client, log *slog.Logger) *Repository {
	return &Repository{
		cl:  cl,
		log: log.With(slog.String("item", "ProgressRepository")),
	}
}

// SetInitialLoadingState starts a new run: every node of the tree is recorded
// with its reset state in one pipeline, and the current-run pointer is moved.
func (r *Repository) SetInitialLoadingState(ctx context.Context, entries []*entity.CourseEntry) error {
	r.runID = uuid.NewString()
	key := getKey(KeyStateMap, r.runID)

	pipe := r.cl.Pipeline()
	for _, entry := range entries {
		pipe.HSet(ctx, key, entity.CourseSelection(entry.ID).Key(), encodeState(entry.ID, entry.State))

		for i := range entry.Tabs {
			sel := entity.TabSelection(entry.ID, entry.Tabs[i].ID)
			pipe.HSet(ctx, key, sel.Key(), encodeState(entry.Tabs[i].ID, entry.Tabs[i].State))
		}

		for i := range entry.Files {
			sel := entity.FileSelection(entry.ID, entry.Files[i].ID)
			pipe.HSet(ctx, key, sel.Key(), encodeState(entry.Files[i].ID, entry.Files[i].State))
		}
	}
	pipe.Set(ctx, KeyCurrentRun, r.runID, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save initial loading state: %w", err)
	}

	return nil
}

// SaveStateProgress records one node's state transition.
func (r *Repository) SaveStateProgress(ctx context.Context, id string, sel entity.Selection, state entity.State) error {
	key := getKey(KeyStateMap, r.runID)
	if err := r.cl.HSet(ctx, key, sel.Key(), encodeState(id, state)).Err(); err != nil {
		return fmt.Errorf("cannot save state progress for %s: %w", sel.Key(), err)
	}

	return nil
}

// SaveDownloadProgress records the run's aggregate progress snapshot.
func (r *Repository) SaveDownloadProgress(ctx context.Context, entries []*entity.CourseEntry) error {
	var total float32
	for _, entry := range entries {
		total += entry.Progress()
	}
	if len(entries) > 0 {
		total /= float32(len(entries))
	}

	data, err := json.Marshal(runProgress{
		ItemCount: entity.TotalSelectionCount(entries),
		Progress:  total,
		HasError:  entity.HasAnyError(entries),
	})
	if err != nil {
		return fmt.Errorf("cannot marshal run progress: %w", err)
	}

	if err := r.cl.Set(ctx, getKey(KeyRunProgress, r.runID), data, 0).Err(); err != nil {
		return fmt.Errorf("cannot save run progress: %w", err)
	}

	return nil
}

// SaveDownloadResult records the terminal summary of the run.
func (r *Repository) SaveDownloadResult(ctx context.Context, isFinished bool, errMsg string) error {
	data, err := json.Marshal(runResult{IsFinished: isFinished, Error: errMsg})
	if err != nil {
		return fmt.Errorf("cannot marshal run result: %w", err)
	}

	if err := r.cl.Set(ctx, getKey(KeyRunResult, r.runID), data, 0).Err(); err != nil {
		return fmt.Errorf("cannot save run result: %w", err)
	}

	return nil
}

// MarkInProgressDownloadsAsFailed rewrites every loading or idle node of the
// current run as failed. Used on the OS interrupt path where no ordinary
// completion will arrive.
func (r *Repository) MarkInProgressDownloadsAsFailed(ctx context.Context) error {
	key := getKey(KeyStateMap, r.runID)

	states, err := r.cl.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cannot read state map: %w", err)
	}

	pipe := r.cl.Pipeline()
	var dirty bool
	for field, raw := range states {
		var st nodeState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			r.log.Error("Cannot decode node state", slog.String("field", field), slog.Any("error", err))

			continue
		}

		if st.Kind != entity.StateLoading.String() && st.Kind != entity.StateIdle.String() {
			continue
		}

		st.Kind = entity.StateError.String()
		st.Progress = nil

		data, err := json.Marshal(st)
		if err != nil {
			continue
		}

		pipe.HSet(ctx, key, field, data)
		dirty = true
	}

	if !dirty {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot mark downloads as failed: %w", err)
	}

	return nil
}

// CleanUpPreviousDownloadProgress deletes the current run's records so a
// relaunch does not present a cancelled run as current.
func (r *Repository) CleanUpPreviousDownloadProgress(ctx context.Context) error {
	runID := r.runID
	if runID == "" {
		stored, err := r.cl.Get(ctx, KeyCurrentRun).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}

			return fmt.Errorf("cannot get current run: %w", err)
		}
		runID = stored
	}

	pipe := r.cl.Pipeline()
	pipe.Del(ctx, getKey(KeyStateMap, runID))
	pipe.Del(ctx, getKey(KeyRunProgress, runID))
	pipe.Del(ctx, getKey(KeyRunResult, runID))
	pipe.Del(ctx, KeyCurrentRun)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot clean up download progress: %w", err)
	}

	return nil
}

func encodeState(id string, state entity.State) string {
	data, err := json.Marshal(nodeState{
		ID:       id,
		Kind:     state.Kind.String(),
		Progress: state.Progress,
	})
	if err != nil {
		// nodeState marshalling cannot fail; keep the signature simple.
		return "{}"
	}

	return string(data)
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
