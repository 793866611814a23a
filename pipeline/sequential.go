package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// SequentialStep runs its children strictly in list order against the same
// Context, with no overlap. It is itself a Step and can be nested.
type SequentialStep struct {
	name          string
	children      []*Unit
	stopOnFailure bool
}

// Sequential builds a sequential composite. With stopOnFailure, the first
// required child failure stops the remaining children; an optional child's
// failure is recorded but never stops the sequence.
func Sequential(name string, stopOnFailure bool, children ...*Unit) *SequentialStep {
	return &SequentialStep{name: name, children: children, stopOnFailure: stopOnFailure}
}

// Name returns the composite's name.
func (s *SequentialStep) Name() string {
	return s.name
}

// Validate requires at least one child.
func (s *SequentialStep) Validate(_ context.Context, _ *Context) error {
	if len(s.children) == 0 {
		return errors.New("sequential composite requires at least one child")
	}

	return nil
}

// Execute runs the children in order. The aggregate records every child's
// result; on failure it retains which children completed and which failed.
func (s *SequentialStep) Execute(ctx context.Context, run *Context) (*Result, error) {
	results := make([]*Result, 0, len(s.children))
	causes := make(map[string]error)

	var failed, succeeded []string

	for _, child := range s.children {
		if err := ctx.Err(); err != nil {
			return s.aggregate(results, succeeded, failed, causes,
				fmt.Errorf("sequence interrupted: %w", err)), nil
		}

		res := child.Run(ctx, run)
		results = append(results, res)

		if res.IsFailed() {
			failed = append(failed, res.StepName)
			causes[res.StepName] = res.Err

			if s.stopOnFailure && res.Required {
				return s.aggregate(results, succeeded, failed, causes, nil), nil
			}

			continue
		}

		if !res.IsSkipped() {
			succeeded = append(succeeded, res.StepName)
		}
	}

	return s.aggregate(results, succeeded, failed, causes, nil), nil
}

// Rollback is a no-op: each child performs its own rollback when it fails.
func (s *SequentialStep) Rollback(_ context.Context, _ *Context, _ error) error {
	return nil
}

// aggregate builds the composite result. The composite fails only when a
// required child failed (or the sequence was interrupted); optional child
// failures are reported without escalating.
func (s *SequentialStep) aggregate(results []*Result, succeeded, failed []string, causes map[string]error, interrupt error) *Result {
	requiredFailure := interrupt != nil

	for _, res := range results {
		if res.IsFailed() && res.Required {
			requiredFailure = true
			break
		}
	}

	metadata := map[string]any{
		"total":     len(s.children),
		"completed": len(results),
		"succeeded": succeeded,
		"failed":    failed,
	}

	if requiredFailure {
		agg := &AggregateError{Step: s.name, Failed: failed, Succeeded: succeeded, Causes: causes}

		err := error(agg)
		if interrupt != nil {
			err = fmt.Errorf("%w: %w", agg, interrupt)
		}

		res := newFailed(s.name, err)
		res.Metadata = metadata
		res.Children = results

		return res
	}

	message := fmt.Sprintf("all %d step(s) completed", len(s.children))
	if len(failed) > 0 {
		message = fmt.Sprintf("completed with %d optional failure(s): %v", len(failed), failed)
	}

	res := newSuccess(s.name, message)
	res.Metadata = metadata
	res.Children = results

	return res
}
