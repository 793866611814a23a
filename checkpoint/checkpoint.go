package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/Allen15763/accrual-bot-sub000/pipeline"
)

// ErrNotFound is returned when no snapshot exists for the requested key.
var ErrNotFound = errors.New("checkpoint: not found")

// Snapshot is a persisted point-in-time copy of a run's context, taken
// after a top-level step, so external code can resume the run from there.
type Snapshot struct {
	RunID    string          `json:"runId"`
	StepName string          `json:"stepName"`
	TakenAt  time.Time       `json:"takenAt"`
	State    *pipeline.State `json:"state"`
}

// Store persists snapshots. Implementations must be safe for concurrent
// use by a single run's hooks.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, runID, stepName string) (Snapshot, error)
	Latest(ctx context.Context, runID string) (Snapshot, error)
}

// Capture snapshots the run context after the named step.
func Capture(run *pipeline.Context, stepName string) Snapshot {
	return Snapshot{
		RunID:    run.Meta.RunID.String(),
		StepName: stepName,
		TakenAt:  time.Now(),
		State:    run.State(),
	}
}

// AfterStep adapts a Store to an executor after-hook that persists the
// context after every successful top-level step. Failed and skipped steps
// are not checkpointed; resuming restarts from the last good state.
func AfterStep(store Store) pipeline.Hook {
	return func(ctx context.Context, run *pipeline.Context, res *pipeline.Result) error {
		if !res.IsSuccess() {
			return nil
		}

		return store.Save(ctx, Capture(run, res.StepName))
	}
}

// Resume loads the latest snapshot of a run and restores a context to
// continue from.
func Resume(ctx context.Context, store Store, runID string) (*pipeline.Context, string, error) {
	snap, err := store.Latest(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	return pipeline.FromState(snap.State), snap.StepName, nil
}
