// Package pipeline implements the step-orchestration engine: a composable
// unit-of-work abstraction with validation, timeout, retry with exponential
// backoff, and rollback, plus three composition operators (Sequential,
// Parallel, Conditional) and a top-level Executor with checkpoint hooks.
//
// A Step is the single capability interface (Validate/Execute/Rollback);
// a Unit binds a Step to its execution policy. Composite operators are
// themselves Steps, so composition nests arbitrarily. Failure kinds are
// explicit typed errors (ValidationError, TimeoutError, BusinessError,
// AggregateError) rather than exception inspection.
package pipeline
