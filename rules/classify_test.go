//go:build unit

package rules

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Allen15763/accrual-bot-sub000/dataset"
)

// newLedger builds a 5-row dataset of purchase-order lines: two vendor-A
// lines, one vendor-B line, one line already labelled upstream, and one
// line no rule covers.
func newLedger(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds := dataset.MustNew("vendor", "amount", "accrual_status")

	rows := [][]dataset.Value{
		{dataset.String("vendor-a"), dataset.NumberFromInt(100), dataset.Null()},
		{dataset.String("vendor-b"), dataset.NumberFromInt(250), dataset.Null()},
		{dataset.String("vendor-a"), dataset.NumberFromInt(80), dataset.Null()},
		{dataset.String("vendor-c"), dataset.NumberFromInt(999), dataset.String("manual")},
		{dataset.String("vendor-d"), dataset.Null(), dataset.Null()},
	}

	for _, row := range rows {
		require.NoError(t, ds.AppendRow(row...))
	}

	return ds
}

func vendorRule(priority int, label, vendor string) Rule {
	return Rule{
		Priority: priority,
		Label:    label,
		Combine:  CombineAnd,
		Checks: []Check{
			{Field: "vendor", Kind: CheckContains, Value: vendor},
		},
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	ruleSet := []Rule{
		vendorRule(1, "accrue", "vendor-a"),
		{
			Priority: 2,
			Label:    "review",
			Combine:  CombineAnd,
			Checks: []Check{
				{Field: "vendor", Kind: CheckInList, Values: []string{"vendor-a", "vendor-b"}},
			},
		},
	}

	stats, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	expected := []string{"accrue", "review", "accrue", "manual", ""}
	for row, want := range expected {
		v, err := ds.At(row, "accrual_status")
		require.NoError(t, err)
		assert.Equal(t, want, v.Display(), "row %d", row)
	}

	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 4, stats.Matched)
	assert.Equal(t, 1, stats.Unmatched)
	assert.Equal(t, 2, stats.PerRule["priority_1_accrue"])
	assert.Equal(t, 1, stats.PerRule["priority_2_review"])
	assert.Equal(t, 2, stats.PerLabel["accrue"])
	assert.Equal(t, 1, stats.PerLabel["review"])
	assert.True(t, stats.MatchRate.Equal(decimal.RequireFromString("80")), "got %s", stats.MatchRate)
}

func TestClassify_SupersetRuleNeverSteals(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	ruleSet := []Rule{
		vendorRule(1, "accrue", "vendor-a"),
		{
			// Matches every row, including everything the first rule claims.
			Priority: 9,
			Label:    "fallback",
			Combine:  CombineAnd,
			Checks: []Check{
				{Field: "vendor", Kind: CheckIsNotNull},
			},
		},
	}

	stats, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	expected := []string{"accrue", "fallback", "accrue", "manual", "fallback"}
	for row, want := range expected {
		v, err := ds.At(row, "accrual_status")
		require.NoError(t, err)
		assert.Equal(t, want, v.Display(), "row %d", row)
	}

	assert.Equal(t, 2, stats.PerRule["priority_1_accrue"])
	assert.Equal(t, 2, stats.PerRule["priority_9_fallback"])
	assert.Equal(t, 0, stats.Unmatched)
}

func TestClassify_PriorityOrderBeatsListOrder(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	// Declared out of priority order; the lower priority number must still
	// win the shared rows.
	ruleSet := []Rule{
		vendorRule(5, "late", "vendor-a"),
		vendorRule(1, "early", "vendor-a"),
	}

	_, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	v, err := ds.At(0, "accrual_status")
	require.NoError(t, err)
	assert.Equal(t, "early", v.Display())
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	ruleSet := []Rule{
		vendorRule(1, "accrue", "vendor-a"),
		vendorRule(2, "review", "vendor-b"),
	}

	first, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	after := ds.Clone()

	second, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	assert.True(t, ds.Equal(after), "second run must not change the dataset")
	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.Unmatched, second.Unmatched)

	// Every row was already claimed or unmatched, so no rule claims anything.
	assert.Equal(t, 0, second.PerRule["priority_1_accrue"])
	assert.Equal(t, 0, second.PerRule["priority_2_review"])
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	ruleSet := []Rule{
		vendorRule(1, "accrue", "vendor-a"),
		vendorRule(2, "review", "vendor-b"),
	}

	first := newLedger(t)
	second := newLedger(t)

	statsA, err := Classify(context.Background(), first, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	statsB, err := Classify(context.Background(), second, ruleSet, "accrual_status", Options{})
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, statsA.Matched, statsB.Matched)
	assert.Equal(t, statsA.PerRule, statsB.PerRule)
	assert.Equal(t, statsA.PerLabel, statsB.PerLabel)
}

func TestClassify_MalformedRule(t *testing.T) {
	t.Parallel()

	noLabel := Rule{
		Priority: 1,
		Combine:  CombineAnd,
		Checks:   []Check{{Field: "vendor", Kind: CheckIsNotNull}},
	}

	t.Run("skipped with warning by default", func(t *testing.T) {
		t.Parallel()

		ds := newLedger(t)

		stats, err := Classify(context.Background(), ds, []Rule{
			noLabel,
			vendorRule(2, "accrue", "vendor-a"),
		}, "accrual_status", Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"priority_1_"}, stats.SkippedRules)
		assert.Equal(t, 2, stats.PerRule["priority_2_accrue"])
	})

	t.Run("aborts in strict mode", func(t *testing.T) {
		t.Parallel()

		ds := newLedger(t)

		_, err := Classify(context.Background(), ds, []Rule{noLabel}, "accrual_status", Options{Strict: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRule)
	})

	t.Run("invalid regex is malformed", func(t *testing.T) {
		t.Parallel()

		bad := Rule{
			Priority: 1,
			Label:    "broken",
			Combine:  CombineAnd,
			Checks:   []Check{{Field: "vendor", Kind: CheckMatches, Value: "("}},
		}

		ds := newLedger(t)

		stats, err := Classify(context.Background(), ds, []Rule{bad}, "accrual_status", Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"priority_1_broken"}, stats.VacuousRules)

		_, err = Classify(context.Background(), newLedger(t), []Rule{bad}, "accrual_status", Options{Strict: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRule)
	})
}

func TestClassify_MissingColumnIsVacuous(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	ghost := Rule{
		Priority: 1,
		Label:    "ghost",
		Combine:  CombineAnd,
		Checks:   []Check{{Field: "no_such_column", Kind: CheckIsNotNull}},
	}

	stats, err := Classify(context.Background(), ds, []Rule{
		ghost,
		vendorRule(2, "accrue", "vendor-a"),
	}, "accrual_status", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"priority_1_ghost"}, stats.VacuousRules)
	assert.NotContains(t, stats.PerRule, "priority_1_ghost")
	assert.Equal(t, 0, stats.PerLabel["ghost"])
	assert.Equal(t, 2, stats.PerRule["priority_2_accrue"])
}

func TestClassify_NoteColumn(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	ruleSet := []Rule{
		{
			Priority: 1,
			Label:    "accrue",
			Note:     "matched vendor-a catalogue",
			Combine:  CombineAnd,
			Checks:   []Check{{Field: "vendor", Kind: CheckContains, Value: "vendor-a"}},
		},
	}

	_, err := Classify(context.Background(), ds, ruleSet, "accrual_status", Options{NoteColumn: "accrual_note"})
	require.NoError(t, err)

	require.True(t, ds.HasColumn("accrual_note"))

	note, err := ds.At(0, "accrual_note")
	require.NoError(t, err)
	assert.Equal(t, "matched vendor-a catalogue", note.Display())

	// Unclaimed rows keep the note column unset.
	note, err = ds.At(1, "accrual_note")
	require.NoError(t, err)
	assert.True(t, note.IsNull())
}

func TestClassify_CreatesTargetColumn(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew("vendor")
	require.NoError(t, ds.AppendRow(dataset.String("vendor-a")))

	stats, err := Classify(context.Background(), ds, []Rule{vendorRule(1, "accrue", "vendor-a")}, "accrual_status", Options{})
	require.NoError(t, err)

	assert.True(t, ds.HasColumn("accrual_status"))
	assert.Equal(t, 1, stats.Matched)
}

func TestClassify_EmptyDataset(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew("vendor")

	stats, err := Classify(context.Background(), ds, []Rule{vendorRule(1, "accrue", "vendor-a")}, "accrual_status", Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Rows)
	assert.Equal(t, 0, stats.Matched)
	assert.True(t, stats.MatchRate.IsZero())
}

func TestClassify_CheckKinds(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T) *dataset.Dataset {
		t.Helper()

		ds := dataset.MustNew("desc", "amount")
		rows := [][]dataset.Value{
			{dataset.String("apple pie"), dataset.NumberFromInt(5)},
			{dataset.String("banana"), dataset.NumberFromInt(10)},
			{dataset.String("Cherry"), dataset.NumberFromFloat(15.5)},
			{dataset.String(""), dataset.Null()},
		}

		for _, row := range rows {
			require.NoError(t, ds.AppendRow(row...))
		}

		return ds
	}

	tests := []struct {
		name    string
		check   Check
		claimed int
	}{
		{
			name:    "contains",
			check:   Check{Field: "desc", Kind: CheckContains, Value: "an"},
			claimed: 1,
		},
		{
			name:    "not_contains",
			check:   Check{Field: "desc", Kind: CheckNotContains, Value: "a"},
			claimed: 2,
		},
		{
			name:    "matches",
			check:   Check{Field: "desc", Kind: CheckMatches, Value: "^[A-Z]"},
			claimed: 1,
		},
		{
			name:    "equals compares numerically",
			check:   Check{Field: "amount", Kind: CheckEquals, Value: "10.0"},
			claimed: 1,
		},
		{
			name:    "not_equals",
			check:   Check{Field: "amount", Kind: CheckNotEquals, Value: "10"},
			claimed: 3,
		},
		{
			name:    "in_list",
			check:   Check{Field: "desc", Kind: CheckInList, Values: []string{"banana", "Cherry"}},
			claimed: 2,
		},
		{
			name:    "not_in_list",
			check:   Check{Field: "desc", Kind: CheckNotInList, Values: []string{"banana"}},
			claimed: 3,
		},
		{
			name:    "is_null treats empty text as unset",
			check:   Check{Field: "desc", Kind: CheckIsNull},
			claimed: 1,
		},
		{
			name:    "is_not_null",
			check:   Check{Field: "amount", Kind: CheckIsNotNull},
			claimed: 3,
		},
		{
			name: "in_range is inclusive",
			check: Check{
				Field: "amount",
				Kind:  CheckInRange,
				Lower: decimal.NewFromInt(5),
				Upper: decimal.NewFromInt(10),
			},
			claimed: 2,
		},
		{
			name:    "at_most rejects null",
			check:   Check{Field: "amount", Kind: CheckAtMost, Bound: decimal.NewFromInt(10)},
			claimed: 2,
		},
		{
			name:    "greater_than",
			check:   Check{Field: "amount", Kind: CheckGreaterThan, Bound: decimal.NewFromInt(10)},
			claimed: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ds := build(t)
			rule := Rule{Priority: 1, Label: "hit", Combine: CombineAnd, Checks: []Check{tt.check}}

			stats, err := Classify(context.Background(), ds, []Rule{rule}, "label", Options{})
			require.NoError(t, err)

			assert.Equal(t, tt.claimed, stats.PerRule["priority_1_hit"])
		})
	}
}

func TestClassify_CombineOperators(t *testing.T) {
	t.Parallel()

	ds := newLedger(t)

	t.Run("and requires every check", func(t *testing.T) {
		rule := Rule{
			Priority: 1,
			Label:    "large-a",
			Combine:  CombineAnd,
			Checks: []Check{
				{Field: "vendor", Kind: CheckContains, Value: "vendor-a"},
				{Field: "amount", Kind: CheckGreaterThan, Bound: decimal.NewFromInt(90)},
			},
		}

		stats, err := Classify(context.Background(), ds.Clone(), []Rule{rule}, "accrual_status", Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.PerRule["priority_1_large-a"])
	})

	t.Run("or requires any check", func(t *testing.T) {
		rule := Rule{
			Priority: 1,
			Label:    "a-or-b",
			Combine:  CombineOr,
			Checks: []Check{
				{Field: "vendor", Kind: CheckContains, Value: "vendor-a"},
				{Field: "vendor", Kind: CheckContains, Value: "vendor-b"},
			},
		}

		stats, err := Classify(context.Background(), ds.Clone(), []Rule{rule}, "accrual_status", Options{})
		require.NoError(t, err)
		assert.Equal(t, 3, stats.PerRule["priority_1_a-or-b"])
	})
}
