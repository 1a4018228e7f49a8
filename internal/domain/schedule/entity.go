// Package schedule models a planned exercise session and its one-way
// transition from pending to completed.
package schedule

import (
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

// RetentionWindow is how long a completed schedule survives past its
// scheduled date before the read-triggered purge removes it.
const RetentionWindow = 24 * time.Hour

// State is derived from Completed; purged schedules are simply gone.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// Schedule is a planned exercise session owned by exactly one user.
type Schedule struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	VideoID       string     `json:"video_id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// New creates a pending schedule.
func New(userID, videoID string, scheduledDate, now time.Time) (*Schedule, error) {
	if scheduledDate.IsZero() {
		return nil, shared.ErrMissingDate
	}
	return &Schedule{
		ID:            shared.NewID(),
		UserID:        userID,
		VideoID:       videoID,
		ScheduledDate: scheduledDate.UTC(),
		CreatedAt:     now.UTC(),
	}, nil
}

// State returns the lifecycle state.
func (s *Schedule) State() State {
	if s.Completed {
		return StateCompleted
	}
	return StatePending
}

// Complete moves a pending schedule to completed. A second call fails with
// shared.ErrScheduleCompleted and leaves the schedule untouched.
func (s *Schedule) Complete(now time.Time) error {
	if s.Completed {
		return shared.ErrScheduleCompleted
	}
	at := now.UTC()
	s.Completed = true
	s.CompletedAt = &at
	return nil
}

// IsStale reports whether the purge should remove the schedule at now.
func (s *Schedule) IsStale(now time.Time) bool {
	return s.Completed && s.ScheduledDate.Before(StaleBefore(now))
}

// StaleBefore is the scheduledDate cutoff for purging at now.
func StaleBefore(now time.Time) time.Time {
	return now.Add(-RetentionWindow)
}

// Consistent reports whether Completed and CompletedAt agree.
func (s *Schedule) Consistent() bool {
	return s.Completed == (s.CompletedAt != nil)
}
