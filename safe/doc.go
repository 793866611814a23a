// Package safe provides guarded decimal arithmetic and cached regex
// compilation for data-driven rule evaluation.
package safe
