// Package rules implements the ordered rule classification engine.
//
// Classify evaluates a priority-ranked, data-driven rule list against a
// dataset and assigns at most one label per row. First match wins: once a
// rule claims a row, no later rule can overwrite it, even when the later
// rule's predicate is a strict superset of the earlier one's.
package rules
