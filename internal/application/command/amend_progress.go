package command

import (
	"context"
	"fmt"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AMEND PROGRESS COMMAND
// Owners may change notes and rating; nothing else about an entry moves.
// ══════════════════════════════════════════════════════════════════════════════

// AmendProgressCommand contains the fields to change.
type AmendProgressCommand struct {
	Caller     access.Caller
	ProgressID string
	Amendment  progress.Amendment
}

// Validate validates the command.
func (c *AmendProgressCommand) Validate() error {
	if err := validateCaller("AmendProgress", c.Caller); err != nil {
		return err
	}
	id, err := normalizeID("AmendProgress", "progress_id", c.ProgressID)
	if err != nil {
		return err
	}
	c.ProgressID = id
	return progress.ValidateRating(c.Amendment.Rating)
}

// AmendProgressHandler handles AmendProgressCommand.
type AmendProgressHandler struct {
	store store.Store
	log   *logger.Logger
}

// NewAmendProgressHandler creates a new AmendProgressHandler.
func NewAmendProgressHandler(st store.Store, log *logger.Logger) *AmendProgressHandler {
	return &AmendProgressHandler{store: st, log: log.With(logger.Component("amend_progress"))}
}

// Handle applies the amendment and returns the stored entry.
func (h *AmendProgressHandler) Handle(ctx context.Context, cmd AmendProgressCommand) (*progress.Entry, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var out *progress.Entry
	err := h.store.Atomic(ctx, func(tx store.Store) error {
		e, err := tx.Progress().FindByID(ctx, cmd.ProgressID)
		if err != nil {
			return err
		}
		if err := access.Check(access.ProgressAmend, cmd.Caller, e.UserID); err != nil {
			return err
		}
		if cmd.Amendment.Empty() {
			out = e
			return nil
		}
		if err := e.Amend(cmd.Amendment); err != nil {
			return err
		}
		if err := tx.Progress().Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		if shared.IsBusiness(err) {
			return nil, err
		}
		return nil, fmt.Errorf("amend_progress: %w", err)
	}

	h.log.Info("progress amended", logger.ProgressID(out.ID), logger.UserID(out.UserID))
	return out, nil
}
