// Package accrual is the root of the accrual processing core: a
// step-orchestration engine (pipeline) and an ordered rule-classification
// engine (rules) over an in-memory tabular dataset (dataset).
//
// The root package holds the run-scoped context helpers shared by the
// subpackages.
package accrual
