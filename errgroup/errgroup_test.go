//go:build unit

package errgroup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_AllSucceed(t *testing.T) {
	t.Parallel()

	grp, _ := WithContext(context.Background())

	var counter atomic.Int32

	for i := 0; i < 5; i++ {
		grp.Go(func() error {
			counter.Add(1)
			return nil
		})
	}

	require.NoError(t, grp.Wait())
	assert.Equal(t, int32(5), counter.Load())
}

func TestGroup_FirstErrorWinsAndCancels(t *testing.T) {
	t.Parallel()

	grp, ctx := WithContext(context.Background())

	boom := errors.New("boom")

	grp.Go(func() error {
		return boom
	})

	grp.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("sibling was not cancelled")
		}
	})

	err := grp.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestGroup_PanicRecovered(t *testing.T) {
	t.Parallel()

	grp, _ := WithContext(context.Background())

	grp.Go(func() error {
		panic("exploded")
	})

	err := grp.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanicRecovered)
	assert.Contains(t, err.Error(), "exploded")
}
