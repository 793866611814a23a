// Package dataset provides the in-memory tabular data model the accrual
// core operates on: named columns, significant row order, and decimal-aware
// scalar cells.
//
// The engine is agnostic to how a dataset was produced; importers live
// outside this module and hand over a *Dataset.
package dataset
