package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	accrual "github.com/Allen15763/accrual-bot-sub000"
	"github.com/Allen15763/accrual-bot-sub000/backoff"
	"github.com/Allen15763/accrual-bot-sub000/log"
)

// defaultBackoffBase is the base delay between retry attempts.
const defaultBackoffBase = time.Second

// Unit binds a Step to its execution policy: required/optional, retries,
// timeout, backoff base, and prerequisite/post actions. The wrapper
// semantics are uniform and not overridable by concrete steps.
type Unit struct {
	step          Step
	required      bool
	retries       int
	timeout       time.Duration
	backoffBase   time.Duration
	prerequisites []Action
	postActions   []Action
	logger        log.Logger
}

// Option customizes a Unit.
type Option func(*Unit)

// Optional marks the unit as not required: a failure is recorded but never
// stops the pipeline, and rollback is not invoked.
func Optional() Option {
	return func(u *Unit) {
		u.required = false
	}
}

// WithRetries sets how many times a failed Execute is retried. The step
// runs at most retries+1 times.
func WithRetries(retries int) Option {
	return func(u *Unit) {
		if retries > 0 {
			u.retries = retries
		}
	}
}

// WithTimeout bounds each Execute attempt. Exceeding it is a TimeoutError,
// distinct from a business failure, and is retried under the same backoff.
func WithTimeout(timeout time.Duration) Option {
	return func(u *Unit) {
		u.timeout = timeout
	}
}

// WithBackoffBase sets the exponential backoff base between retry attempts.
func WithBackoffBase(base time.Duration) Option {
	return func(u *Unit) {
		if base > 0 {
			u.backoffBase = base
		}
	}
}

// WithPrerequisite registers an action that runs before Execute, in
// registration order.
func WithPrerequisite(action Action) Option {
	return func(u *Unit) {
		u.prerequisites = append(u.prerequisites, action)
	}
}

// WithPostAction registers an action that runs after a successful Execute,
// in registration order.
func WithPostAction(action Action) Option {
	return func(u *Unit) {
		u.postActions = append(u.postActions, action)
	}
}

// WithLogger sets the unit's logger, overriding the context-carried one.
func WithLogger(logger log.Logger) Option {
	return func(u *Unit) {
		u.logger = logger
	}
}

// NewUnit wraps a step with its execution policy. Units are required by
// default with zero retries, no timeout, and a one-second backoff base.
func NewUnit(step Step, opts ...Option) *Unit {
	u := &Unit{
		step:        step,
		required:    true,
		backoffBase: defaultBackoffBase,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Name returns the wrapped step's name.
func (u *Unit) Name() string {
	return u.step.Name()
}

// IsRequired reports whether a failure of this unit escalates.
func (u *Unit) IsRequired() bool {
	return u.required
}

// Run executes the wrapped step with the full wrapper semantics:
// validation, prerequisites, bounded and retried execution, rollback on an
// exhausted required step, post actions, and duration accounting on every
// exit path.
func (u *Unit) Run(ctx context.Context, run *Context) *Result {
	start := time.Now()
	logger := u.effectiveLogger(ctx).With(log.String("step", u.Name()))

	res := u.run(ctx, run, logger)
	res.Duration = time.Since(start)
	res.Required = u.required

	return res
}

func (u *Unit) run(ctx context.Context, run *Context, logger log.Logger) *Result {
	name := u.step.Name()

	if err := u.step.Validate(ctx, run); err != nil {
		if !u.required {
			logger.Log(ctx, log.LevelWarn, "skipping optional step: validation failed", log.Err(err))
			return newSkipped(name, "input validation failed")
		}

		vErr := &ValidationError{Step: name, Reason: err}
		logger.Log(ctx, log.LevelError, "step validation failed", log.Err(vErr))

		return newFailed(name, vErr)
	}

	for i, action := range u.prerequisites {
		if err := action(ctx, run); err != nil {
			bErr := &BusinessError{Step: name, Err: fmt.Errorf("prerequisite %d: %w", i, err)}
			logger.Log(ctx, log.LevelError, "prerequisite action failed", log.Err(bErr))

			return newFailed(name, bErr)
		}
	}

	res, lastErr := u.attemptAll(ctx, run, logger)

	if lastErr != nil {
		if u.required {
			if rbErr := u.step.Rollback(ctx, run, lastErr); rbErr != nil {
				logger.Log(ctx, log.LevelWarn, "rollback failed", log.Err(rbErr))
			}

			logger.Log(ctx, log.LevelError, "required step failed", log.Err(lastErr))

			return newFailed(name, lastErr)
		}

		logger.Log(ctx, log.LevelWarn, "optional step failed, continuing", log.Err(lastErr))

		return newFailed(name, lastErr)
	}

	for i, action := range u.postActions {
		if err := action(ctx, run); err != nil {
			bErr := &BusinessError{Step: name, Err: fmt.Errorf("post action %d: %w", i, err)}
			logger.Log(ctx, log.LevelError, "post action failed", log.Err(bErr))

			return newFailed(name, bErr)
		}
	}

	if res == nil {
		res = newSuccess(name, "")
	}

	return res
}

// attemptAll runs Execute up to retries+1 times with exponential backoff
// between attempts. Only errors returned by Execute are retried; a Failed
// Result returned without an error (composite aggregates) is final.
func (u *Unit) attemptAll(ctx context.Context, run *Context, logger log.Logger) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= u.retries; attempt++ {
		if attempt > 0 {
			logger.Log(ctx, log.LevelWarn, "retrying step",
				log.Int("attempt", attempt),
				log.Int("max_retries", u.retries),
				log.Err(lastErr),
			)

			if err := backoff.WaitContext(ctx, backoff.Exponential(u.backoffBase, attempt-1)); err != nil {
				return nil, &BusinessError{Step: u.step.Name(), Err: err}
			}
		}

		res, err := u.attempt(ctx, run)
		if err == nil {
			return res, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

// attempt runs Execute once, bounded by the configured timeout, converting
// panics into business failures. Cancellation is cooperative: an in-flight
// Execute is signalled through its context but not forcibly stopped.
func (u *Unit) attempt(ctx context.Context, run *Context) (*Result, error) {
	name := u.step.Name()

	execCtx := ctx

	if u.timeout > 0 {
		var cancel context.CancelFunc

		execCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	type outcome struct {
		res *Result
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- outcome{err: &BusinessError{
					Step: name,
					Err:  fmt.Errorf("%w: %v", ErrPanicRecovered, recovered),
				}}
			}
		}()

		res, err := u.step.Execute(execCtx, run)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, u.classify(ctx, out.err)
		}

		return out.res, nil
	case <-execCtx.Done():
		if u.timeout > 0 && errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Step: name, Limit: u.timeout}
		}

		return nil, &BusinessError{Step: name, Err: execCtx.Err()}
	}
}

// classify wraps raw step errors as business failures while preserving
// already-typed pipeline failures and surfacing attempt-level timeouts.
func (u *Unit) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrBusiness),
		errors.Is(err, ErrAggregate):
		return err
	case u.timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return &TimeoutError{Step: u.step.Name(), Limit: u.timeout}
	default:
		return &BusinessError{Step: u.step.Name(), Err: err}
	}
}

//nolint:ireturn
func (u *Unit) effectiveLogger(ctx context.Context) log.Logger {
	if u.logger != nil {
		return u.logger
	}

	return accrual.LoggerFromContext(ctx)
}
