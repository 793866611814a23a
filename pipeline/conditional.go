package pipeline

import (
	"context"
	"errors"
)

// Condition decides which branch of a conditional composite runs. It is
// evaluated exactly once per execution.
type Condition func(run *Context) bool

// ConditionalStep evaluates a condition against the run context and runs
// one of two child units.
type ConditionalStep struct {
	name      string
	condition Condition
	trueStep  *Unit
	falseStep *Unit
}

// Conditional builds a conditional composite. falseStep may be nil, in
// which case an unmet condition yields a Skipped result.
func Conditional(name string, condition Condition, trueStep, falseStep *Unit) *ConditionalStep {
	return &ConditionalStep{name: name, condition: condition, trueStep: trueStep, falseStep: falseStep}
}

// Name returns the composite's name.
func (c *ConditionalStep) Name() string {
	return c.name
}

// Validate requires a condition and a true branch; the children validate
// themselves when they run.
func (c *ConditionalStep) Validate(_ context.Context, _ *Context) error {
	if c.condition == nil {
		return errors.New("conditional composite requires a condition")
	}

	if c.trueStep == nil {
		return errors.New("conditional composite requires a true step")
	}

	return nil
}

// Execute evaluates the condition once and returns the chosen child's
// result directly.
func (c *ConditionalStep) Execute(ctx context.Context, run *Context) (*Result, error) {
	if c.condition(run) {
		return c.trueStep.Run(ctx, run), nil
	}

	if c.falseStep != nil {
		return c.falseStep.Run(ctx, run), nil
	}

	return newSkipped(c.name, "condition not met, no false step defined"), nil
}

// Rollback is a no-op: the executed child performs its own rollback.
func (c *ConditionalStep) Rollback(_ context.Context, _ *Context, _ error) error {
	return nil
}
