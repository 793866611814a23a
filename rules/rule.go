package rules

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CombineOp declares how a rule combines its check results. A rule uses
// exactly one operator across all of its checks.
type CombineOp string

const (
	// CombineAnd requires every check to hold.
	CombineAnd CombineOp = "and"
	// CombineOr requires at least one check to hold.
	CombineOr CombineOp = "or"
)

// CheckKind identifies the predicate a check applies to its field.
type CheckKind string

const (
	// CheckContains holds when the cell's text contains Value as a substring.
	CheckContains CheckKind = "contains"
	// CheckNotContains is the negation of CheckContains.
	CheckNotContains CheckKind = "not_contains"
	// CheckMatches holds when the cell's text matches the Value regex.
	CheckMatches CheckKind = "matches"
	// CheckEquals holds when the cell equals Value (decimal comparison when
	// both sides parse as numbers, text comparison otherwise).
	CheckEquals CheckKind = "equals"
	// CheckNotEquals is the negation of CheckEquals.
	CheckNotEquals CheckKind = "not_equals"
	// CheckInList holds when the cell's text equals one of Values.
	CheckInList CheckKind = "in_list"
	// CheckNotInList is the negation of CheckInList.
	CheckNotInList CheckKind = "not_in_list"
	// CheckIsNull holds when the cell is unset.
	CheckIsNull CheckKind = "is_null"
	// CheckIsNotNull holds when the cell carries a value.
	CheckIsNotNull CheckKind = "is_not_null"
	// CheckInRange holds when the cell's number is within [Lower, Upper] inclusive.
	CheckInRange CheckKind = "in_range"
	// CheckAtMost holds when the cell's number is less than or equal to Bound.
	CheckAtMost CheckKind = "at_most"
	// CheckGreaterThan holds when the cell's number is strictly greater than Bound.
	CheckGreaterThan CheckKind = "greater_than"
)

// Check is one field predicate inside a rule. Which payload fields are
// consulted depends on Kind: Value for text and equality kinds, Values for
// list kinds, Bound for at-most/greater-than, Lower and Upper for in-range.
type Check struct {
	Field  string          `json:"field"`
	Kind   CheckKind       `json:"kind"`
	Value  string          `json:"value,omitempty"`
	Values []string        `json:"values,omitempty"`
	Bound  decimal.Decimal `json:"bound,omitempty"`
	Lower  decimal.Decimal `json:"lower,omitempty"`
	Upper  decimal.Decimal `json:"upper,omitempty"`
}

// Rule maps a combined predicate to a label. Rules are data, never code;
// an external configuration loader produces them in an ordered sequence.
// Lower Priority numbers take precedence.
type Rule struct {
	Priority int       `json:"priority"`
	Label    string    `json:"label"`
	Note     string    `json:"note,omitempty"`
	Combine  CombineOp `json:"combine"`
	Checks   []Check   `json:"checks"`
}

// ErrMalformedRule is the sentinel for rules that cannot be evaluated.
var ErrMalformedRule = errors.New("rules: malformed rule")

var validKinds = map[CheckKind]struct{}{
	CheckContains:    {},
	CheckNotContains: {},
	CheckMatches:     {},
	CheckEquals:      {},
	CheckNotEquals:   {},
	CheckInList:      {},
	CheckNotInList:   {},
	CheckIsNull:      {},
	CheckIsNotNull:   {},
	CheckInRange:     {},
	CheckAtMost:      {},
	CheckGreaterThan: {},
}

// Validate reports why a rule is malformed, or nil.
func (r Rule) Validate() error {
	if r.Label == "" {
		return fmt.Errorf("%w: priority %d has no label", ErrMalformedRule, r.Priority)
	}

	if len(r.Checks) == 0 {
		return fmt.Errorf("%w: priority %d (%s) has no checks", ErrMalformedRule, r.Priority, r.Label)
	}

	if r.Combine != CombineAnd && r.Combine != CombineOr {
		return fmt.Errorf("%w: priority %d (%s) has invalid combine %q", ErrMalformedRule, r.Priority, r.Label, r.Combine)
	}

	for i, chk := range r.Checks {
		if chk.Field == "" {
			return fmt.Errorf("%w: priority %d (%s) check %d has no field", ErrMalformedRule, r.Priority, r.Label, i)
		}

		if _, ok := validKinds[chk.Kind]; !ok {
			return fmt.Errorf("%w: priority %d (%s) check %d has unknown kind %q", ErrMalformedRule, r.Priority, r.Label, i, chk.Kind)
		}
	}

	return nil
}

// key is the per-rule statistics key, stable across runs.
func (r Rule) key() string {
	return fmt.Sprintf("priority_%d_%s", r.Priority, r.Label)
}
