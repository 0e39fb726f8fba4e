package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"nexusmall/internal/pkg/apperr"
)

func TestOnConflictRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := OnConflict(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return apperr.Conflict("order M1 was modified concurrently")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestOnConflictGivesUp(t *testing.T) {
	calls := 0
	err := OnConflict(context.Background(), 3, func(context.Context) error {
		calls++
		return apperr.Conflict("still racing")
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 3, calls)
}

func TestOnConflictStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := OnConflict(context.Background(), 3, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
