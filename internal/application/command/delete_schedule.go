package command

import (
	"context"
	"fmt"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE SCHEDULE COMMAND
// Progress history is never touched.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteScheduleCommand identifies the schedule to remove.
type DeleteScheduleCommand struct {
	Caller     access.Caller
	ScheduleID string
}

// Validate validates the command.
func (c *DeleteScheduleCommand) Validate() error {
	if err := validateCaller("DeleteSchedule", c.Caller); err != nil {
		return err
	}
	id, err := normalizeID("DeleteSchedule", "schedule_id", c.ScheduleID)
	if err != nil {
		return err
	}
	c.ScheduleID = id
	return nil
}

// DeleteScheduleHandler handles DeleteScheduleCommand.
type DeleteScheduleHandler struct {
	store store.Store
	log   *logger.Logger
}

// NewDeleteScheduleHandler creates a new DeleteScheduleHandler.
func NewDeleteScheduleHandler(st store.Store, log *logger.Logger) *DeleteScheduleHandler {
	return &DeleteScheduleHandler{store: st, log: log.With(logger.Component("delete_schedule"))}
}

// Handle checks ownership and deletes.
func (h *DeleteScheduleHandler) Handle(ctx context.Context, cmd DeleteScheduleCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	err := h.store.Atomic(ctx, func(tx store.Store) error {
		s, err := tx.Schedules().FindByIDForUpdate(ctx, cmd.ScheduleID)
		if err != nil {
			return err
		}
		if err := access.Check(access.ScheduleDelete, cmd.Caller, s.UserID); err != nil {
			return err
		}
		return tx.Schedules().DeleteByID(ctx, s.ID)
	})
	if err != nil {
		if shared.IsBusiness(err) {
			return err
		}
		return fmt.Errorf("delete_schedule: %w", err)
	}

	h.log.Info("schedule deleted", logger.ScheduleID(cmd.ScheduleID), logger.String("deleted_by", cmd.Caller.ID))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PURGE STALE SCHEDULES
// Runs at read time for one user; there is no background sweeper.
// ══════════════════════════════════════════════════════════════════════════════

// PurgeStaleHandler deletes a user's completed schedules older than the
// retention window.
type PurgeStaleHandler struct {
	store     store.Store
	clock     timeutil.Clock
	retention time.Duration
	log       *logger.Logger
}

// NewPurgeStaleHandler creates a PurgeStaleHandler. retention <= 0 uses
// schedule.RetentionWindow.
func NewPurgeStaleHandler(st store.Store, clock timeutil.Clock, retention time.Duration, log *logger.Logger) *PurgeStaleHandler {
	if retention <= 0 {
		retention = schedule.RetentionWindow
	}
	return &PurgeStaleHandler{store: st, clock: clock, retention: retention, log: log.With(logger.Component("purge_stale"))}
}

// Purge removes userID's stale schedules and reports how many went.
func (h *PurgeStaleHandler) Purge(ctx context.Context, userID string) (int, error) {
	before := h.clock().Add(-h.retention)
	completed := true

	n, err := h.store.Schedules().Delete(ctx, schedule.Filter{
		UserID:    userID,
		Completed: &completed,
		Before:    &before,
	})
	if err != nil {
		return 0, fmt.Errorf("purge_stale: %w", err)
	}
	if n > 0 {
		h.log.Debug("stale schedules purged", logger.UserID(userID), logger.Int("count", n))
	}
	return n, nil
}
