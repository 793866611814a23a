//go:build unit

package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("compiles valid pattern", func(t *testing.T) {
		t.Parallel()

		re, err := Compile(`^PO-\d{6}$`)
		require.NoError(t, err)
		assert.True(t, re.MatchString("PO-202608"))
		assert.False(t, re.MatchString("PR-202608"))
	})

	t.Run("returns cached instance", func(t *testing.T) {
		t.Parallel()

		first, err := Compile(`cache-probe-\d+`)
		require.NoError(t, err)

		second, err := Compile(`cache-probe-\d+`)
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("invalid pattern returns typed error", func(t *testing.T) {
		t.Parallel()

		_, err := Compile(`(`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRegex)
	})
}

func TestMatchString(t *testing.T) {
	t.Parallel()

	ok, err := MatchString(`(?i)accrual`, "Monthly Accrual Run")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = MatchString(`[`, "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRegex)
}
