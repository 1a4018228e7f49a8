package command

import (
	"context"
	"fmt"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE SCHEDULE COMMAND
// Marks a schedule completed and appends the matching progress entry in one
// transaction. A second completion is rejected and writes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteScheduleCommand identifies the schedule to complete.
type CompleteScheduleCommand struct {
	Caller     access.Caller
	ScheduleID string
}

// Validate validates the command.
func (c *CompleteScheduleCommand) Validate() error {
	if err := validateCaller("CompleteSchedule", c.Caller); err != nil {
		return err
	}
	id, err := normalizeID("CompleteSchedule", "schedule_id", c.ScheduleID)
	if err != nil {
		return err
	}
	c.ScheduleID = id
	return nil
}

// CompleteScheduleResult is the completed schedule and its history entry.
type CompleteScheduleResult struct {
	Schedule *schedule.Schedule `json:"schedule"`
	Progress *progress.Entry    `json:"progress"`
}

// CompleteScheduleHandler handles CompleteScheduleCommand.
type CompleteScheduleHandler struct {
	store store.Store
	clock timeutil.Clock
	log   *logger.Logger
}

// NewCompleteScheduleHandler creates a new CompleteScheduleHandler.
func NewCompleteScheduleHandler(st store.Store, clock timeutil.Clock, log *logger.Logger) *CompleteScheduleHandler {
	return &CompleteScheduleHandler{store: st, clock: clock, log: log.With(logger.Component("complete_schedule"))}
}

// Handle runs the transition. The schedule row is locked for the duration of
// the transaction, so concurrent completions queue and the losers see
// shared.ErrScheduleCompleted.
func (h *CompleteScheduleHandler) Handle(ctx context.Context, cmd CompleteScheduleCommand) (*CompleteScheduleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result CompleteScheduleResult
	err := h.store.Atomic(ctx, func(tx store.Store) error {
		s, err := tx.Schedules().FindByIDForUpdate(ctx, cmd.ScheduleID)
		if err != nil {
			return err
		}
		if err := access.Check(access.ScheduleComplete, cmd.Caller, s.UserID); err != nil {
			return err
		}

		now := h.clock()
		if err := s.Complete(now); err != nil {
			return err
		}
		if err := tx.Schedules().Update(ctx, s); err != nil {
			return err
		}

		entry, err := progress.New(s.UserID, s.VideoID, now, nil, nil, now)
		if err != nil {
			return err
		}
		if err := tx.Progress().Insert(ctx, entry); err != nil {
			return err
		}

		result = CompleteScheduleResult{Schedule: s, Progress: entry}
		return nil
	})
	if err != nil {
		if shared.IsBusiness(err) {
			return nil, err
		}
		return nil, fmt.Errorf("complete_schedule: %w", err)
	}

	h.log.Info("schedule completed",
		logger.ScheduleID(result.Schedule.ID),
		logger.ProgressID(result.Progress.ID),
		logger.UserID(result.Schedule.UserID),
	)
	return &result, nil
}
