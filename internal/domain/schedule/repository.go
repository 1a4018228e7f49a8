package schedule

import (
	"context"
	"time"
)

// Filter selects schedules. Nil/zero fields are ignored.
type Filter struct {
	UserID  string
	VideoID string
	UserIDs []string

	// From and To bound ScheduledDate inclusively.
	From *time.Time
	To   *time.Time

	// Before bounds ScheduledDate exclusively; the purge uses it.
	Before *time.Time

	Completed *bool
}

// Repository is the schedule part of the entity store.
type Repository interface {
	// FindByID returns shared.ErrScheduleNotFound when absent.
	FindByID(ctx context.Context, id string) (*Schedule, error)

	// FindByIDForUpdate is FindByID that also locks the row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Schedule, error)

	// Query returns matching schedules ordered by ScheduledDate ascending.
	Query(ctx context.Context, filter Filter) ([]*Schedule, error)

	// Count returns the number of matching schedules.
	Count(ctx context.Context, filter Filter) (int, error)

	// CountByVideo returns the number of schedules per video id.
	CountByVideo(ctx context.Context) (map[string]int, error)

	Insert(ctx context.Context, s *Schedule) error

	// Update persists Completed and CompletedAt.
	Update(ctx context.Context, s *Schedule) error

	// DeleteByID returns shared.ErrScheduleNotFound when nothing was removed.
	DeleteByID(ctx context.Context, id string) error

	// Delete removes every matching schedule and returns how many went.
	Delete(ctx context.Context, filter Filter) (int, error)
}
