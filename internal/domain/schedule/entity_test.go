package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

var now = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestNewCreatesPendingSchedule(t *testing.T) {
	s, err := New("u1", "v1", now.Add(time.Hour), now)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatePending, s.State())
	assert.Nil(t, s.CompletedAt)
	assert.True(t, s.Consistent())
}

func TestNewRejectsZeroDate(t *testing.T) {
	_, err := New("u1", "v1", time.Time{}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCompleteIsOneWay(t *testing.T) {
	s, err := New("u1", "v1", now, now)
	require.NoError(t, err)

	require.NoError(t, s.Complete(now.Add(time.Minute)))
	assert.Equal(t, StateCompleted, s.State())
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now.Add(time.Minute), *s.CompletedAt)
	assert.True(t, s.Consistent())

	first := *s.CompletedAt
	err = s.Complete(now.Add(time.Hour))
	assert.ErrorIs(t, err, shared.ErrAlreadyCompleted)
	assert.Equal(t, first, *s.CompletedAt)
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name      string
		scheduled time.Time
		completed bool
		want      bool
	}{
		{"completed and old", now.Add(-25 * time.Hour), true, true},
		{"completed exactly at cutoff", now.Add(-24 * time.Hour), true, false},
		{"completed and recent", now.Add(-2 * time.Hour), true, false},
		{"pending and old", now.Add(-72 * time.Hour), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{ScheduledDate: tt.scheduled}
			if tt.completed {
				require.NoError(t, s.Complete(now))
			}
			assert.Equal(t, tt.want, s.IsStale(now))
		})
	}
}
