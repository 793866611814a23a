package pipeline

import "context"

// Step is the single capability interface every unit of work implements.
// Concrete business steps, and the composite operators themselves, satisfy
// it; composition happens through free-standing combinators rather than
// inheritance.
type Step interface {
	// Name identifies the step in results, logs, and reports.
	Name() string
	// Validate checks the step's preconditions against the run context.
	// A non-nil error means the preconditions are unmet.
	Validate(ctx context.Context, run *Context) error
	// Execute performs the business operation. It may read and mutate the
	// run's dataset, auxiliary registry, and variables. Returning a non-nil
	// error signals a retryable failure; returning a Failed Result with a
	// nil error (as composites do) is final.
	Execute(ctx context.Context, run *Context) (*Result, error)
	// Rollback is the best-effort compensating action, invoked only when a
	// required step exhausts all retries.
	Rollback(ctx context.Context, run *Context, cause error) error
}

// Action is a prerequisite or post action registered on a Unit.
type Action func(ctx context.Context, run *Context) error

// StepFunc is the operation body of a function-backed step.
type StepFunc func(ctx context.Context, run *Context) (*Result, error)

// funcStep adapts plain functions to the Step interface. Most concrete
// business steps need only an Execute body.
type funcStep struct {
	name     string
	execute  StepFunc
	validate func(ctx context.Context, run *Context) error
	rollback func(ctx context.Context, run *Context, cause error) error
}

// FuncOption customizes a function-backed step.
type FuncOption func(*funcStep)

// WithValidate attaches a precondition check to a function-backed step.
func WithValidate(fn func(ctx context.Context, run *Context) error) FuncOption {
	return func(s *funcStep) {
		s.validate = fn
	}
}

// WithRollback attaches a compensating action to a function-backed step.
func WithRollback(fn func(ctx context.Context, run *Context, cause error) error) FuncOption {
	return func(s *funcStep) {
		s.rollback = fn
	}
}

// NewStep builds a Step from a name and an execute function.
//
//nolint:ireturn
func NewStep(name string, execute StepFunc, opts ...FuncOption) Step {
	s := &funcStep{name: name, execute: execute}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *funcStep) Name() string {
	return s.name
}

func (s *funcStep) Validate(ctx context.Context, run *Context) error {
	if s.validate == nil {
		return nil
	}

	return s.validate(ctx, run)
}

func (s *funcStep) Execute(ctx context.Context, run *Context) (*Result, error) {
	return s.execute(ctx, run)
}

func (s *funcStep) Rollback(ctx context.Context, run *Context, cause error) error {
	if s.rollback == nil {
		return nil
	}

	return s.rollback(ctx, run, cause)
}
