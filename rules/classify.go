package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	accrual "github.com/Allen15763/accrual-bot-sub000"
	"github.com/Allen15763/accrual-bot-sub000/dataset"
	"github.com/Allen15763/accrual-bot-sub000/log"
	"github.com/Allen15763/accrual-bot-sub000/safe"
	"github.com/shopspring/decimal"
)

// Options configures a classification run.
type Options struct {
	// Strict aborts classification on the first malformed rule instead of
	// skipping it with a warning.
	Strict bool
	// NoteColumn, when set, receives the matching rule's note on every row
	// the rule claims.
	NoteColumn string
}

// Stats summarizes one classification run.
type Stats struct {
	// Rows is the dataset row count.
	Rows int
	// Matched counts rows carrying a label after the run.
	Matched int
	// Unmatched counts rows left on the unset sentinel.
	Unmatched int
	// MatchRate is Matched/Rows as a percentage, two decimal places.
	MatchRate decimal.Decimal
	// PerRule maps each evaluated rule's key to the rows it claimed.
	PerRule map[string]int
	// PerLabel is the label distribution over claimed rows.
	PerLabel map[string]int
	// SkippedRules lists malformed rules skipped in non-strict mode.
	SkippedRules []string
	// VacuousRules lists rules that referenced a column absent from the
	// dataset and therefore matched nothing.
	VacuousRules []string
}

// Classify assigns at most one label per row by evaluating rules in
// ascending priority order with first-match-wins semantics. The dataset is
// annotated in place: targetColumn (created when missing) receives the
// label, and opts.NoteColumn the rule note. Rows no rule claims keep the
// explicit unset sentinel.
//
// Rows that already carry a label on entry are treated as claimed, so
// re-running a classification over its own output changes nothing.
func Classify(ctx context.Context, ds *dataset.Dataset, ruleSet []Rule, targetColumn string, opts Options) (Stats, error) {
	logger := accrual.LoggerFromContext(ctx)

	stats := Stats{
		Rows:     ds.Len(),
		PerRule:  make(map[string]int),
		PerLabel: make(map[string]int),
	}

	ordered, err := orderRules(ctx, logger, ruleSet, opts, &stats)
	if err != nil {
		return Stats{}, err
	}

	ds.EnsureColumn(targetColumn)

	if opts.NoteColumn != "" {
		ds.EnsureColumn(opts.NoteColumn)
	}

	targetIdx, _ := ds.ColumnIndex(targetColumn)

	noteIdx := -1
	if opts.NoteColumn != "" {
		noteIdx, _ = ds.ColumnIndex(opts.NoteColumn)
	}

	claimed := seedClaimed(ds, targetIdx)

	for _, rule := range ordered {
		applied, vacuous, err := applyRule(ctx, logger, ds, rule, claimed, targetIdx, noteIdx, opts)
		if err != nil {
			return Stats{}, err
		}

		if vacuous {
			stats.VacuousRules = append(stats.VacuousRules, rule.key())
			continue
		}

		stats.PerRule[rule.key()] = applied
		if applied > 0 {
			stats.PerLabel[rule.Label] += applied
		}
	}

	for row := 0; row < ds.Len(); row++ {
		if ds.AtIndex(row, targetIdx).IsNull() {
			stats.Unmatched++
		} else {
			stats.Matched++
		}
	}

	stats.MatchRate = safe.Percentage(
		decimal.NewFromInt(int64(stats.Matched)),
		decimal.NewFromInt(int64(stats.Rows)),
		2,
	)

	logger.Log(ctx, log.LevelInfo, "classification complete",
		log.String("target_column", targetColumn),
		log.Int("rows", stats.Rows),
		log.Int("matched", stats.Matched),
		log.Int("unmatched", stats.Unmatched),
	)

	return stats, nil
}

// orderRules validates and priority-sorts the rule set. Malformed rules
// abort in strict mode and are skipped with a warning otherwise.
func orderRules(ctx context.Context, logger log.Logger, ruleSet []Rule, opts Options, stats *Stats) ([]Rule, error) {
	ordered := make([]Rule, 0, len(ruleSet))

	for _, rule := range ruleSet {
		if err := rule.Validate(); err != nil {
			if opts.Strict {
				return nil, err
			}

			logger.Log(ctx, log.LevelWarn, "skipping malformed rule", log.Err(err))
			stats.SkippedRules = append(stats.SkippedRules, rule.key())

			continue
		}

		ordered = append(ordered, rule)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	return ordered, nil
}

// seedClaimed marks rows that already carry a label so later rules never
// overwrite them.
func seedClaimed(ds *dataset.Dataset, targetIdx int) []bool {
	claimed := make([]bool, ds.Len())
	for row := 0; row < ds.Len(); row++ {
		if !ds.AtIndex(row, targetIdx).IsNull() {
			claimed[row] = true
		}
	}

	return claimed
}

// applyRule stamps rule.Label onto every unclaimed row the rule's combined
// predicate holds for, and marks those rows claimed. Returns the number of
// rows claimed, or vacuous=true when the rule references a missing column.
func applyRule(
	ctx context.Context,
	logger log.Logger,
	ds *dataset.Dataset,
	rule Rule,
	claimed []bool,
	targetIdx, noteIdx int,
	opts Options,
) (applied int, vacuous bool, err error) {
	evals, vacuous, err := compileChecks(ctx, logger, ds, rule, opts)
	if err != nil || vacuous {
		return 0, vacuous, err
	}

	label := dataset.String(rule.Label)

	var note dataset.Value
	if noteIdx >= 0 && rule.Note != "" {
		note = dataset.String(rule.Note)
	}

	for row := 0; row < ds.Len(); row++ {
		if claimed[row] {
			continue
		}

		if !combineChecks(rule.Combine, evals, row) {
			continue
		}

		ds.SetIndex(row, targetIdx, label)

		if noteIdx >= 0 && rule.Note != "" {
			ds.SetIndex(row, noteIdx, note)
		}

		claimed[row] = true
		applied++
	}

	if applied > 0 {
		logger.Log(ctx, log.LevelDebug, "rule applied",
			log.Int("priority", rule.Priority),
			log.String("label", rule.Label),
			log.Int("rows", applied),
		)
	}

	return applied, false, nil
}

// checkEval is a compiled per-row predicate for one check.
type checkEval struct {
	ds     *dataset.Dataset
	colIdx int
	check  Check
	re     *regexp.Regexp
}

func (ev checkEval) holds(row int) bool {
	return evalCheck(ev.check, ev.re, ev.ds.AtIndex(row, ev.colIdx))
}

// compileChecks resolves column indices and regex patterns once per rule.
// A missing column makes the whole rule vacuous for this run; an invalid
// regex is treated as a malformed rule.
func compileChecks(ctx context.Context, logger log.Logger, ds *dataset.Dataset, rule Rule, opts Options) ([]checkEval, bool, error) {
	evals := make([]checkEval, 0, len(rule.Checks))

	for _, chk := range rule.Checks {
		colIdx, ok := ds.ColumnIndex(chk.Field)
		if !ok {
			logger.Log(ctx, log.LevelWarn, "rule references missing column",
				log.Int("priority", rule.Priority),
				log.String("label", rule.Label),
				log.String("column", chk.Field),
			)

			return nil, true, nil
		}

		eval := checkEval{ds: ds, colIdx: colIdx, check: chk}

		if chk.Kind == CheckMatches {
			re, err := safe.Compile(chk.Value)
			if err != nil {
				wrapped := fmt.Errorf("%w: priority %d (%s): %w", ErrMalformedRule, rule.Priority, rule.Label, err)
				if opts.Strict {
					return nil, false, wrapped
				}

				logger.Log(ctx, log.LevelWarn, "skipping rule with invalid pattern", log.Err(wrapped))

				return nil, true, nil
			}

			eval.re = re
		}

		evals = append(evals, eval)
	}

	return evals, false, nil
}

func combineChecks(op CombineOp, evals []checkEval, row int) bool {
	if op == CombineOr {
		for _, ev := range evals {
			if ev.holds(row) {
				return true
			}
		}

		return false
	}

	for _, ev := range evals {
		if !ev.holds(row) {
			return false
		}
	}

	return true
}

func evalCheck(chk Check, re *regexp.Regexp, v dataset.Value) bool {
	switch chk.Kind {
	case CheckContains:
		return strings.Contains(v.Display(), chk.Value)
	case CheckNotContains:
		return !strings.Contains(v.Display(), chk.Value)
	case CheckMatches:
		return re.MatchString(v.Display())
	case CheckEquals:
		return valueEquals(v, chk.Value)
	case CheckNotEquals:
		return !valueEquals(v, chk.Value)
	case CheckInList:
		return inList(v, chk.Values)
	case CheckNotInList:
		return !inList(v, chk.Values)
	case CheckIsNull:
		return v.IsNull()
	case CheckIsNotNull:
		return !v.IsNull()
	case CheckInRange:
		d, ok := v.Decimal()
		return ok && d.GreaterThanOrEqual(chk.Lower) && d.LessThanOrEqual(chk.Upper)
	case CheckAtMost:
		d, ok := v.Decimal()
		return ok && d.LessThanOrEqual(chk.Bound)
	case CheckGreaterThan:
		d, ok := v.Decimal()
		return ok && d.GreaterThan(chk.Bound)
	default:
		return false
	}
}

// valueEquals compares numerically when both sides parse as decimals
// (so "10.0" equals "10"), textually otherwise.
func valueEquals(v dataset.Value, literal string) bool {
	if d, ok := v.Decimal(); ok {
		if ref, err := decimal.NewFromString(strings.TrimSpace(literal)); err == nil {
			return d.Equal(ref)
		}
	}

	return v.Display() == literal
}

func inList(v dataset.Value, list []string) bool {
	display := v.Display()
	for _, item := range list {
		if display == item {
			return true
		}
	}

	return false
}
