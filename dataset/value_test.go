//go:build unit

package dataset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_IsNull(t *testing.T) {
	t.Parallel()

	assert.True(t, Null().IsNull())
	assert.True(t, String("").IsNull(), "empty text counts as unset")
	assert.False(t, String("x").IsNull())
	assert.False(t, NumberFromInt(0).IsNull())
	assert.False(t, Bool(false).IsNull())
}

func TestValue_Decimal(t *testing.T) {
	t.Parallel()

	t.Run("number yields its decimal", func(t *testing.T) {
		t.Parallel()

		d, ok := NumberFromFloat(42.5).Decimal()
		require.True(t, ok)
		assert.True(t, d.Equal(decimal.RequireFromString("42.5")))
	})

	t.Run("numeric text parses", func(t *testing.T) {
		t.Parallel()

		d, ok := String(" 1250.75 ").Decimal()
		require.True(t, ok)
		assert.True(t, d.Equal(decimal.RequireFromString("1250.75")))
	})

	t.Run("non-numeric text does not parse", func(t *testing.T) {
		t.Parallel()

		_, ok := String("vendor-a").Decimal()
		assert.False(t, ok)
	})

	t.Run("null and bool do not parse", func(t *testing.T) {
		t.Parallel()

		_, ok := Null().Decimal()
		assert.False(t, ok)

		_, ok = Bool(true).Decimal()
		assert.False(t, ok)
	})
}

func TestValue_Display(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{name: "null", value: Null(), expected: ""},
		{name: "string", value: String("vendor-a"), expected: "vendor-a"},
		{name: "number", value: NumberFromFloat(42.5), expected: "42.5"},
		{name: "bool true", value: Bool(true), expected: "true"},
		{name: "bool false", value: Bool(false), expected: "false"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.value.Display())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	t.Parallel()

	one := Number(decimal.RequireFromString("1.0"))
	alsoOne := Number(decimal.RequireFromString("1.00"))

	assert.True(t, one.Equal(alsoOne), "numbers compare by value, not exponent")
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(String("")))
	assert.False(t, String("1").Equal(NumberFromInt(1)), "kinds never coerce")
}

func TestValue_Accessors(t *testing.T) {
	t.Parallel()

	s, ok := String("vendor-a").Text()
	require.True(t, ok)
	assert.Equal(t, "vendor-a", s)

	_, ok = NumberFromInt(1).Text()
	assert.False(t, ok)

	b, ok := Bool(true).Bool()
	require.True(t, ok)
	assert.True(t, b)

	_, ok = String("true").Bool()
	assert.False(t, ok)

	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, "number", KindNumber.String())
}
