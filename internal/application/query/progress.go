package query

import (
	"context"
	"fmt"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PROGRESS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ProgressPage is one page of history, newest first.
type ProgressPage struct {
	Items      []*progress.Entry `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// ListProgressQuery pages through the caller's history.
type ListProgressQuery struct {
	Caller  access.Caller
	VideoID string
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

// ListProgressHandler handles ListProgressQuery and ListAllProgressQuery.
type ListProgressHandler struct {
	store  store.Store
	limits Limits
}

// NewListProgressHandler creates a new ListProgressHandler.
func NewListProgressHandler(st store.Store, limits Limits) *ListProgressHandler {
	return &ListProgressHandler{store: st, limits: limits.withDefaults()}
}

// Handle returns one page of the caller's entries.
func (h *ListProgressHandler) Handle(ctx context.Context, q ListProgressQuery) (*ProgressPage, error) {
	if err := validateCaller("ListProgress", q.Caller); err != nil {
		return nil, err
	}
	filter := progress.Filter{UserID: q.Caller.ID, From: q.From, To: q.To}
	if q.VideoID != "" {
		id, err := normalizeID("ListProgress", "video_id", q.VideoID)
		if err != nil {
			return nil, err
		}
		filter.VideoID = id
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, invalid("ListProgress", "to must not be before from")
	}

	page := shared.NewPage(q.Page, q.Limit, h.limits.PageSize, h.limits.MaxPageSize)
	return h.page(ctx, filter, page)
}

// ListAllProgressQuery pages through every user's history.
type ListAllProgressQuery struct {
	Caller access.Caller
	Page   int
	Limit  int
}

// HandleAll returns one page of all entries for staff.
func (h *ListProgressHandler) HandleAll(ctx context.Context, q ListAllProgressQuery) (*ProgressPage, error) {
	if err := validateCaller("ListAllProgress", q.Caller); err != nil {
		return nil, err
	}
	if err := access.Check(access.ProgressReadAll, q.Caller, ""); err != nil {
		return nil, err
	}

	page := shared.NewPage(q.Page, q.Limit, h.limits.AdminPageSize, h.limits.MaxPageSize)
	return h.page(ctx, progress.Filter{}, page)
}

func (h *ListProgressHandler) page(ctx context.Context, filter progress.Filter, page shared.Page) (*ProgressPage, error) {
	total, err := h.store.Progress().Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list_progress: %w", err)
	}

	filter.Limit = page.Size
	filter.Offset = page.Offset()
	items, err := h.store.Progress().Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list_progress: %w", err)
	}
	if items == nil {
		items = []*progress.Entry{}
	}

	return &ProgressPage{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}
