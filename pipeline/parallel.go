package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/Allen15763/accrual-bot-sub000/dataset"
	"github.com/Allen15763/accrual-bot-sub000/errgroup"
)

// ParallelStep starts all children concurrently. Each child receives an
// isolated branch of the Context; the parent context is never shared
// between concurrently running children. Successful branches are merged
// back deterministically by branch index after all children complete.
type ParallelStep struct {
	name     string
	children []*Unit
	failFast bool
}

// Parallel builds a parallel composite. With failFast, the first required
// child failure cancels the remaining in-flight children (best-effort,
// cooperative) and nothing is merged back. In gather-all mode every child
// runs to completion and the successful branches are merged.
func Parallel(name string, failFast bool, children ...*Unit) *ParallelStep {
	return &ParallelStep{name: name, children: children, failFast: failFast}
}

// Name returns the composite's name.
func (p *ParallelStep) Name() string {
	return p.name
}

// Validate requires at least one child.
func (p *ParallelStep) Validate(_ context.Context, _ *Context) error {
	if len(p.children) == 0 {
		return errors.New("parallel composite requires at least one child")
	}

	return nil
}

// Execute runs the children concurrently on isolated branches.
func (p *ParallelStep) Execute(ctx context.Context, run *Context) (*Result, error) {
	branches := make([]*Context, len(p.children))
	results := make([]*Result, len(p.children))

	for i := range p.children {
		branches[i] = run.Branch()
	}

	grp, grpCtx := errgroup.WithContext(ctx)

	for i, child := range p.children {
		i, child := i, child
		grp.Go(func() error {
			res := child.Run(grpCtx, branches[i])
			results[i] = res

			if p.failFast && res.IsFailed() && res.Required {
				return res.Err
			}

			return nil
		})
	}

	firstErr := grp.Wait()

	causes := make(map[string]error)

	var failed, succeeded []string

	requiredFailure := false

	for i, res := range results {
		if res == nil {
			// A panic that escaped a child's own recovery surfaces here.
			res = newFailed(p.children[i].Name(), &BusinessError{
				Step: p.children[i].Name(),
				Err:  fmt.Errorf("child produced no result: %w", firstErr),
			})
			res.Required = p.children[i].IsRequired()
			results[i] = res
		}

		switch {
		case res.IsFailed():
			failed = append(failed, res.StepName)
			causes[res.StepName] = res.Err

			if res.Required {
				requiredFailure = true
			}
		case res.IsSkipped():
		default:
			succeeded = append(succeeded, res.StepName)
		}
	}

	metadata := map[string]any{
		"total":     len(p.children),
		"succeeded": succeeded,
		"failed":    failed,
		"fail_fast": p.failFast,
	}

	if p.failFast && requiredFailure {
		// Nothing from any branch is merged: results completed after the
		// first failure never reach the parent context.
		agg := &AggregateError{Step: p.name, Failed: failed, Succeeded: succeeded, Causes: causes}
		res := newFailed(p.name, agg)
		res.Metadata = metadata
		res.Children = results

		return res, nil
	}

	mergeBranches(run, branches, results)

	if requiredFailure {
		agg := &AggregateError{Step: p.name, Failed: failed, Succeeded: succeeded, Causes: causes}
		res := newFailed(p.name, agg)
		res.Metadata = metadata
		res.Children = results

		return res, nil
	}

	message := fmt.Sprintf("all %d step(s) completed", len(p.children))
	if len(failed) > 0 {
		message = fmt.Sprintf("completed with %d optional failure(s): %v", len(failed), failed)
	}

	res := newSuccess(p.name, message)
	res.Metadata = metadata
	res.Children = results

	return res, nil
}

// Rollback is a no-op: each child performs its own rollback when it fails.
func (p *ParallelStep) Rollback(_ context.Context, _ *Context, _ error) error {
	return nil
}

// mergeBranches folds successful branches back into the parent context in
// branch-index order, so the merge outcome is deterministic regardless of
// completion order.
//
// Dataset merge is column-level against the pre-branch baseline: a branch
// that changed or added a column wins that column, later branches winning
// conflicting columns. A branch that changed the row count replaces the
// dataset wholesale. Variables and auxiliary datasets merge by key in
// branch order; diagnostics appended beyond the baseline are concatenated.
func mergeBranches(run *Context, branches []*Context, results []*Result) {
	base := run.Data
	merged := base.Clone()

	baseVars := run.Vars()
	baseErrs := len(run.errs)
	baseWarnings := len(run.warnings)

	for i, branch := range branches {
		if !results[i].IsSuccess() {
			continue
		}

		merged = mergeDataset(base, merged, branch.Data)

		for key, value := range branch.variables {
			baseValue, existed := baseVars[key]
			if !existed || !reflect.DeepEqual(baseValue, value) {
				run.SetVar(key, value)
			}
		}

		for _, key := range branch.Aux.Keys() {
			branchDS, _ := branch.Aux.Get(key)

			baseDS, existed := run.Aux.Get(key)
			if !existed || !baseDS.Equal(branchDS) {
				run.Aux.Put(key, branchDS)
			}
		}

		for _, msg := range branch.errs[min(baseErrs, len(branch.errs)):] {
			run.AddError(msg)
		}

		for _, msg := range branch.warnings[min(baseWarnings, len(branch.warnings)):] {
			run.AddWarning(msg)
		}
	}

	run.Data = merged
}

// mergeDataset folds one branch's dataset into the accumulated merge
// result, diffing against the pre-branch baseline.
func mergeDataset(base, merged, branch *dataset.Dataset) *dataset.Dataset {
	if branch.Len() != base.Len() {
		// Shape changed: the branch replaces the dataset wholesale.
		return branch
	}

	if merged.Len() != branch.Len() {
		// An earlier branch already replaced the shape; column-level merge
		// is no longer meaningful for this branch.
		return merged
	}

	for _, col := range branch.Columns() {
		branchCol, err := branch.Column(col)
		if err != nil {
			continue
		}

		if !base.HasColumn(col) {
			merged.EnsureColumn(col)
			_ = merged.SetColumn(col, branchCol)

			continue
		}

		baseCol, err := base.Column(col)
		if err != nil {
			continue
		}

		if !columnsEqual(baseCol, branchCol) {
			merged.EnsureColumn(col)
			_ = merged.SetColumn(col, branchCol)
		}
	}

	return merged
}

func columnsEqual(a, b []dataset.Value) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}
