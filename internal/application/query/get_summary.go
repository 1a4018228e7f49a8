package query

import (
	"context"
	"fmt"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/adherence"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUMMARY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetSummaryQuery asks for one user's adherence summary.
type GetSummaryQuery struct {
	Caller access.Caller

	// UserID defaults to the caller. Only staff may name someone else.
	UserID string
}

// GetSummaryHandler handles GetSummaryQuery.
type GetSummaryHandler struct {
	store store.Store
	clock timeutil.Clock
}

// NewGetSummaryHandler creates a new GetSummaryHandler.
func NewGetSummaryHandler(st store.Store, clock timeutil.Clock) *GetSummaryHandler {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &GetSummaryHandler{store: st, clock: clock}
}

// Handle computes the summary from the user's full history.
func (h *GetSummaryHandler) Handle(ctx context.Context, q GetSummaryQuery) (*adherence.Summary, error) {
	if err := validateCaller("GetSummary", q.Caller); err != nil {
		return nil, err
	}

	userID := q.Caller.ID
	if q.UserID != "" && q.UserID != q.Caller.ID {
		id, err := normalizeID("GetSummary", "user_id", q.UserID)
		if err != nil {
			return nil, err
		}
		if err := access.Check(access.AnalyticsRead, q.Caller, id); err != nil {
			return nil, err
		}
		if _, err := h.store.Users().FindByID(ctx, id); err != nil {
			return nil, err
		}
		userID = id
	}

	entries, err := h.store.Progress().Query(ctx, progress.Filter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("get_summary: %w", err)
	}

	summary := adherence.Summarize(adherence.Completions(entries), h.clock())
	return &summary, nil
}
