package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Sentinel failure kinds. Callers branch on these with errors.Is instead of
// inspecting concrete types, so retry policy and reporting can special-case
// timeouts without depending on error internals.
var (
	// ErrValidation marks a precondition unmet before execution.
	ErrValidation = errors.New("pipeline: validation failed")
	// ErrTimeout marks a step that exceeded its bounded execution time.
	ErrTimeout = errors.New("pipeline: step timed out")
	// ErrBusiness marks an error raised inside the operation body.
	ErrBusiness = errors.New("pipeline: step failed")
	// ErrAggregate marks bundled failures from a composite operator.
	ErrAggregate = errors.New("pipeline: composite step failed")
	// ErrPanicRecovered marks a panic recovered from a step's Execute.
	ErrPanicRecovered = errors.New("pipeline: panic recovered")
)

// ValidationError reports that a required step's input validation failed.
type ValidationError struct {
	Step   string
	Reason error
}

// Error returns the formatted validation failure.
func (e *ValidationError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("step %q: validation failed", e.Step)
	}

	return fmt.Sprintf("step %q: validation failed: %v", e.Step, e.Reason)
}

// Unwrap exposes the sentinel and the underlying reason.
func (e *ValidationError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrValidation}
	}

	return []error{ErrValidation, e.Reason}
}

// TimeoutError reports that a step exceeded its configured timeout. It is a
// distinct failure kind from BusinessError so callers can treat "slow but
// maybe transient" separately.
type TimeoutError struct {
	Step  string
	Limit time.Duration
}

// Error returns the formatted timeout failure.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("step %q: timed out after %s", e.Step, e.Limit)
}

// Unwrap exposes the sentinel.
func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// BusinessError wraps an error returned by a step's operation body.
type BusinessError struct {
	Step string
	Err  error
}

// Error returns the formatted business failure.
func (e *BusinessError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

// Unwrap exposes the sentinel and the wrapped cause.
func (e *BusinessError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBusiness}
	}

	return []error{ErrBusiness, e.Err}
}

// AggregateError bundles the failures of a composite operator while
// retaining which children failed and which succeeded.
type AggregateError struct {
	Step      string
	Failed    []string
	Succeeded []string
	Causes    map[string]error
}

// Error names the composite and its failed children.
func (e *AggregateError) Error() string {
	return fmt.Sprintf("composite %q: %d child step(s) failed: %v", e.Step, len(e.Failed), e.Failed)
}

// Unwrap exposes the sentinel and every child cause in child-name order,
// so errors.Is finds a specific failure kind anywhere in the bundle.
func (e *AggregateError) Unwrap() []error {
	out := []error{ErrAggregate}

	names := make([]string, 0, len(e.Causes))
	for name := range e.Causes {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if cause := e.Causes[name]; cause != nil {
			out = append(out, cause)
		}
	}

	return out
}
