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
// CREATE SCHEDULE COMMAND
// Plans a session for the caller, or for a patient when staff create it.
// ══════════════════════════════════════════════════════════════════════════════

// CreateScheduleCommand contains the data to plan a session.
type CreateScheduleCommand struct {
	Caller        access.Caller
	VideoID       string
	ScheduledDate time.Time

	// TargetUserID is honoured for experts and admins only.
	TargetUserID string
}

// Validate validates the command and canonicalizes identifiers.
func (c *CreateScheduleCommand) Validate() error {
	if err := validateCaller("CreateSchedule", c.Caller); err != nil {
		return err
	}
	id, err := normalizeID("CreateSchedule", "video_id", c.VideoID)
	if err != nil {
		return err
	}
	c.VideoID = id
	if c.ScheduledDate.IsZero() {
		return shared.ErrMissingDate
	}
	if c.TargetUserID != "" {
		target, err := normalizeID("CreateSchedule", "user_id", c.TargetUserID)
		if err != nil {
			return err
		}
		c.TargetUserID = target
	}
	return nil
}

// owner resolves whose schedule this is.
func (c CreateScheduleCommand) owner() string {
	if c.TargetUserID != "" && c.Caller.Role.IsStaff() {
		return c.TargetUserID
	}
	return c.Caller.ID
}

// CreateScheduleHandler handles CreateScheduleCommand.
type CreateScheduleHandler struct {
	store store.Store
	clock timeutil.Clock
	log   *logger.Logger
}

// NewCreateScheduleHandler creates a new CreateScheduleHandler.
func NewCreateScheduleHandler(st store.Store, clock timeutil.Clock, log *logger.Logger) *CreateScheduleHandler {
	return &CreateScheduleHandler{store: st, clock: clock, log: log.With(logger.Component("create_schedule"))}
}

// Handle validates references and inserts a pending schedule.
func (h *CreateScheduleHandler) Handle(ctx context.Context, cmd CreateScheduleCommand) (*schedule.Schedule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	owner := cmd.owner()
	if err := access.Check(access.ScheduleCreateFor, cmd.Caller, owner); err != nil {
		return nil, err
	}

	if _, err := h.store.Catalog().FindVideo(ctx, cmd.VideoID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrUnknownVideo
		}
		return nil, fmt.Errorf("create_schedule: failed to load video: %w", err)
	}
	if owner != cmd.Caller.ID {
		if _, err := h.store.Users().FindByID(ctx, owner); err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.ErrUnknownUser
			}
			return nil, fmt.Errorf("create_schedule: failed to load user: %w", err)
		}
	}

	s, err := schedule.New(owner, cmd.VideoID, cmd.ScheduledDate, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.store.Schedules().Insert(ctx, s); err != nil {
		if shared.IsBusiness(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create_schedule: failed to insert: %w", err)
	}

	h.log.Info("schedule created",
		logger.ScheduleID(s.ID),
		logger.UserID(owner),
		logger.VideoID(s.VideoID),
		logger.String("created_by", cmd.Caller.ID),
	)
	return s, nil
}
