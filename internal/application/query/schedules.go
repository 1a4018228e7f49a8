package query

import (
	"context"
	"fmt"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SCHEDULES QUERY
// Purges the caller's stale schedules, then lists what is left.
// ══════════════════════════════════════════════════════════════════════════════

// Purger removes one user's stale schedules.
type Purger interface {
	Purge(ctx context.Context, userID string) (int, error)
}

// ListSchedulesQuery lists the caller's own schedules.
type ListSchedulesQuery struct {
	Caller access.Caller

	// From and To bound scheduledDate inclusively.
	From *time.Time
	To   *time.Time

	Completed *bool
}

// Validate validates the query.
func (q *ListSchedulesQuery) Validate() error {
	if err := validateCaller("ListSchedules", q.Caller); err != nil {
		return err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return invalid("ListSchedules", "to must not be before from")
	}
	return nil
}

// ListSchedulesHandler handles ListSchedulesQuery.
type ListSchedulesHandler struct {
	store  store.Store
	purger Purger
}

// NewListSchedulesHandler creates a new ListSchedulesHandler.
func NewListSchedulesHandler(st store.Store, purger Purger) *ListSchedulesHandler {
	return &ListSchedulesHandler{store: st, purger: purger}
}

// Handle returns the caller's schedules ordered by scheduledDate ascending.
func (h *ListSchedulesHandler) Handle(ctx context.Context, q ListSchedulesQuery) ([]*schedule.Schedule, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.purger.Purge(ctx, q.Caller.ID); err != nil {
		return nil, fmt.Errorf("list_schedules: %w", err)
	}

	items, err := h.store.Schedules().Query(ctx, schedule.Filter{
		UserID:    q.Caller.ID,
		From:      q.From,
		To:        q.To,
		Completed: q.Completed,
	})
	if err != nil {
		return nil, fmt.Errorf("list_schedules: %w", err)
	}
	if items == nil {
		items = []*schedule.Schedule{}
	}
	return items, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET SCHEDULE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetScheduleQuery fetches one schedule.
type GetScheduleQuery struct {
	Caller     access.Caller
	ScheduleID string
}

// GetScheduleHandler handles GetScheduleQuery.
type GetScheduleHandler struct {
	store store.Store
}

// NewGetScheduleHandler creates a new GetScheduleHandler.
func NewGetScheduleHandler(st store.Store) *GetScheduleHandler {
	return &GetScheduleHandler{store: st}
}

// Handle returns the schedule when the caller owns it or is staff.
func (h *GetScheduleHandler) Handle(ctx context.Context, q GetScheduleQuery) (*schedule.Schedule, error) {
	if err := validateCaller("GetSchedule", q.Caller); err != nil {
		return nil, err
	}
	id, err := normalizeID("GetSchedule", "schedule_id", q.ScheduleID)
	if err != nil {
		return nil, err
	}

	s, err := h.store.Schedules().FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get_schedule: %w", err)
	}
	if err := access.Check(access.ScheduleRead, q.Caller, s.UserID); err != nil {
		return nil, err
	}
	return s, nil
}
