package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func TestDoRetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errTransient)
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithMaxAttempts(3))

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(errTransient)
	}, WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDoReturnsLastErrorWhenAttemptsExhausted(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(errTransient)
	}, WithInitialDelay(time.Millisecond), WithMaxAttempts(2))

	assert.ErrorIs(t, err, errTransient)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 2, attempts)
}

func TestDatabaseRetrierUsesPredicate(t *testing.T) {
	attempts := 0
	r := DatabaseRetrier(func(err error) bool { return errors.Is(err, errTransient) })

	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoWithData(t *testing.T) {
	v, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}
