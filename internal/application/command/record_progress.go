package command

import (
	"context"
	"fmt"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PROGRESS COMMAND
// Logs an exercise done outside a schedule.
// ══════════════════════════════════════════════════════════════════════════════

// RecordProgressCommand contains a new history entry for the caller.
type RecordProgressCommand struct {
	Caller  access.Caller
	VideoID string

	// CompletionDate defaults to now when zero.
	CompletionDate time.Time
	Rating         *int
	Notes          *string
}

// Validate validates the command.
func (c *RecordProgressCommand) Validate() error {
	if err := validateCaller("RecordProgress", c.Caller); err != nil {
		return err
	}
	id, err := normalizeID("RecordProgress", "video_id", c.VideoID)
	if err != nil {
		return err
	}
	c.VideoID = id
	return progress.ValidateRating(c.Rating)
}

// RecordProgressHandler handles RecordProgressCommand.
type RecordProgressHandler struct {
	store store.Store
	clock timeutil.Clock
	log   *logger.Logger
}

// NewRecordProgressHandler creates a new RecordProgressHandler.
func NewRecordProgressHandler(st store.Store, clock timeutil.Clock, log *logger.Logger) *RecordProgressHandler {
	return &RecordProgressHandler{store: st, clock: clock, log: log.With(logger.Component("record_progress"))}
}

// Handle inserts the entry.
func (h *RecordProgressHandler) Handle(ctx context.Context, cmd RecordProgressCommand) (*progress.Entry, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.store.Catalog().FindVideo(ctx, cmd.VideoID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("progress", "Record", shared.ErrInvalidReference, "video does not exist")
		}
		return nil, fmt.Errorf("record_progress: failed to load video: %w", err)
	}

	entry, err := progress.New(cmd.Caller.ID, cmd.VideoID, cmd.CompletionDate, cmd.Rating, cmd.Notes, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.store.Progress().Insert(ctx, entry); err != nil {
		if shared.IsBusiness(err) {
			return nil, err
		}
		return nil, fmt.Errorf("record_progress: failed to insert: %w", err)
	}

	h.log.Info("progress recorded", logger.ProgressID(entry.ID), logger.UserID(entry.UserID), logger.VideoID(entry.VideoID))
	return entry, nil
}
