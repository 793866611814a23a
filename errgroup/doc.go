// Package errgroup provides a panic-safe goroutine group with
// first-error-wins cancellation, used by the parallel composite operator.
package errgroup
