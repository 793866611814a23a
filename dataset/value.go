package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the scalar kinds a cell can hold.
type ValueKind uint8

const (
	// KindNull marks an unset cell. Unclaimed classification targets stay null.
	KindNull ValueKind = iota
	// KindString marks a text cell.
	KindString
	// KindNumber marks a decimal cell.
	KindNumber
	// KindBool marks a boolean cell.
	KindBool
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged scalar held by a dataset cell.
type Value struct {
	kind    ValueKind
	str     string
	num     decimal.Decimal
	boolean bool
}

// Null returns the unset sentinel value.
func Null() Value {
	return Value{kind: KindNull}
}

// String returns a text value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a decimal value.
func Number(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// NumberFromInt returns a decimal value from an int64.
func NumberFromInt(n int64) Value {
	return Number(decimal.NewFromInt(n))
}

// NumberFromFloat returns a decimal value from a float64.
func NumberFromFloat(f float64) Value {
	return Number(decimal.NewFromFloat(f))
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// Kind returns the value's kind tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether the value is the unset sentinel. Empty strings are
// also treated as unset, matching how imported spreadsheets represent
// missing cells.
func (v Value) IsNull() bool {
	return v.kind == KindNull || (v.kind == KindString && v.str == "")
}

// Text returns the string content and true for string values.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}

	return v.str, true
}

// Decimal returns the numeric content and true when the value is a number,
// or a string that parses as one. Rule checks compare through this so that
// numeric columns imported as text still participate in range checks.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.str))
		if err != nil {
			return decimal.Zero, false
		}

		return d, true
	default:
		return decimal.Zero, false
	}
}

// Bool returns the boolean content and true for boolean values.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}

	return v.boolean, true
}

// Display renders the value for logs, notes, and substring checks.
// Null renders as the empty string.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		if v.boolean {
			return "true"
		}

		return "false"
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
// Numbers compare by decimal equality (1.0 equals 1.00).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num.Equal(other.num)
	case KindBool:
		return v.boolean == other.boolean
	default:
		return true
	}
}

// MarshalJSON encodes the value as the corresponding JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		return json.Marshal(v.boolean)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar, preserving numeric precision by
// routing numbers through decimal.
func (v *Value) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))

	switch {
	case text == "null":
		*v = Null()
		return nil
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*v = String(s)

		return nil
	case text == "true" || text == "false":
		*v = Bool(text == "true")
		return nil
	default:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return fmt.Errorf("dataset: invalid cell %q: %w", text, err)
		}

		*v = Number(d)

		return nil
	}
}
