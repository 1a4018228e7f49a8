package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/adherence"
	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS QUERIES
// Staff-only reports. Each one loads its inputs concurrently and hands them to
// the pure functions in the adherence package.
// ══════════════════════════════════════════════════════════════════════════════

// AnalyticsHandler serves every staff report.
type AnalyticsHandler struct {
	store  store.Store
	clock  timeutil.Clock
	limits Limits
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(st store.Store, clock timeutil.Clock, limits Limits) *AnalyticsHandler {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &AnalyticsHandler{store: st, clock: clock, limits: limits.withDefaults()}
}

func (h *AnalyticsHandler) authorize(op string, action access.Action, c access.Caller) error {
	if err := validateCaller(op, c); err != nil {
		return err
	}
	return access.Check(action, c, "")
}

// ─────────────────────────────────────────────────────────────────────────────
// Top videos
// ─────────────────────────────────────────────────────────────────────────────

// TopVideosQuery asks for the most completed videos.
type TopVideosQuery struct {
	Caller access.Caller
	Limit  int
}

// TopVideos ranks videos by completions.
func (h *AnalyticsHandler) TopVideos(ctx context.Context, q TopVideosQuery) ([]adherence.VideoStat, error) {
	if err := h.authorize("TopVideos", access.AnalyticsRead, q.Caller); err != nil {
		return nil, err
	}
	limit := q.Limit
	switch {
	case limit == 0:
		limit = h.limits.TopVideos
	case limit < 0:
		return nil, invalid("TopVideos", "limit must be positive")
	case limit > h.limits.MaxPageSize:
		limit = h.limits.MaxPageSize
	}

	var (
		videos      []*catalog.Video
		categories  []*catalog.Category
		completions map[string]int
		scheduled   map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		videos, err = h.store.Catalog().ListVideos(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = h.store.Catalog().ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		completions, err = h.store.Progress().CountByVideo(gctx)
		return err
	})
	g.Go(func() (err error) {
		scheduled, err = h.store.Schedules().CountByVideo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("top_videos: %w", err)
	}

	return adherence.TopVideos(videos, categories, completions, scheduled, limit), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Category totals
// ─────────────────────────────────────────────────────────────────────────────

// CategoryTotalsQuery asks for completions rolled up per category.
type CategoryTotalsQuery struct {
	Caller access.Caller
}

// CategoryTotals sums completions per category.
func (h *AnalyticsHandler) CategoryTotals(ctx context.Context, q CategoryTotalsQuery) ([]adherence.CategoryStat, error) {
	if err := h.authorize("CategoryTotals", access.AnalyticsRead, q.Caller); err != nil {
		return nil, err
	}

	var (
		videos      []*catalog.Video
		categories  []*catalog.Category
		completions map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		videos, err = h.store.Catalog().ListVideos(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = h.store.Catalog().ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		completions, err = h.store.Progress().CountByVideo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("category_totals: %w", err)
	}

	return adherence.CategoryTotals(categories, videos, completions), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Patient engagement
// ─────────────────────────────────────────────────────────────────────────────

// EngagementQuery asks for per-patient adherence over the last Days days.
type EngagementQuery struct {
	Caller access.Caller
	Days   int
}

// Engagement reports patients active in the window, most progress first.
func (h *AnalyticsHandler) Engagement(ctx context.Context, q EngagementQuery) ([]adherence.EngagementRow, error) {
	if err := h.authorize("Engagement", access.AnalyticsRead, q.Caller); err != nil {
		return nil, err
	}
	days, err := h.limits.window("Engagement", q.Days, h.limits.EngagementDays)
	if err != nil {
		return nil, err
	}

	now := h.clock()
	since := timeutil.DaysAgo(now, days)

	var (
		patients  []*user.User
		schedules []*schedule.Schedule
		counts    map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patients, err = h.store.Users().List(gctx, user.Filter{Role: user.RolePatient})
		return err
	})
	g.Go(func() (err error) {
		schedules, err = h.store.Schedules().Query(gctx, schedule.Filter{From: &since})
		return err
	})
	g.Go(func() (err error) {
		counts, err = h.store.Progress().CountByUser(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engagement: %w", err)
	}

	return adherence.Engagement(patients, adherence.Plans(schedules), counts, days, now, h.limits.EngagementRows), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Active users
// ─────────────────────────────────────────────────────────────────────────────

// ActiveUsersQuery asks for distinct active users over the last Days days.
type ActiveUsersQuery struct {
	Caller access.Caller
	Days   int
}

// ActiveUsers counts users with activity and returns a dense daily series.
func (h *AnalyticsHandler) ActiveUsers(ctx context.Context, q ActiveUsersQuery) (*adherence.ActiveUsersReport, error) {
	if err := h.authorize("ActiveUsers", access.AnalyticsRead, q.Caller); err != nil {
		return nil, err
	}
	days, err := h.limits.window("ActiveUsers", q.Days, h.limits.ActiveUsersDays)
	if err != nil {
		return nil, err
	}

	now := h.clock()
	start := adherence.WindowStart(days, now)
	entries, err := h.store.Progress().Query(ctx, progress.Filter{From: &start})
	if err != nil {
		return nil, fmt.Errorf("active_users: %w", err)
	}

	report := adherence.ActiveUsers(adherence.Completions(entries), days, now)
	return &report, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Hospital breakdown
// ─────────────────────────────────────────────────────────────────────────────

// HospitalBreakdownQuery asks for patient counts per hospital.
type HospitalBreakdownQuery struct {
	Caller access.Caller
}

// HospitalBreakdown groups patients by declared hospital. Admin only.
func (h *AnalyticsHandler) HospitalBreakdown(ctx context.Context, q HospitalBreakdownQuery) ([]user.HospitalCount, error) {
	if err := h.authorize("HospitalBreakdown", access.HospitalRead, q.Caller); err != nil {
		return nil, err
	}

	counts, err := h.store.Users().GroupPatientsByHospital(ctx)
	if err != nil {
		return nil, fmt.Errorf("hospital_breakdown: %w", err)
	}
	return adherence.HospitalBreakdown(counts), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Overview
// ─────────────────────────────────────────────────────────────────────────────

// OverviewQuery asks for the platform dashboard.
type OverviewQuery struct {
	Caller access.Caller
}

// Overview gathers platform-wide counts.
func (h *AnalyticsHandler) Overview(ctx context.Context, q OverviewQuery) (*adherence.Overview, error) {
	if err := h.authorize("Overview", access.AnalyticsRead, q.Caller); err != nil {
		return nil, err
	}

	now := h.clock()
	since7 := timeutil.DaysAgo(now, 7)
	since30 := timeutil.DaysAgo(now, 30)
	done := true

	var in adherence.OverviewInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Roles, err = h.store.Users().CountByRole(gctx)
		return err
	})
	g.Go(func() error {
		videos, err := h.store.Catalog().ListVideos(gctx)
		in.Videos = len(videos)
		return err
	})
	g.Go(func() error {
		categories, err := h.store.Catalog().ListCategories(gctx)
		in.Categories = len(categories)
		return err
	})
	g.Go(func() (err error) {
		in.TotalCompletions, err = h.store.Progress().Count(gctx, progress.Filter{})
		return err
	})
	g.Go(func() (err error) {
		in.CompletedLast7Days, err = h.store.Progress().Count(gctx, progress.Filter{From: &since7})
		return err
	})
	g.Go(func() (err error) {
		in.CompletedLast30Days, err = h.store.Progress().Count(gctx, progress.Filter{From: &since30})
		return err
	})
	g.Go(func() (err error) {
		in.TotalSchedules, err = h.store.Schedules().Count(gctx, schedule.Filter{})
		return err
	})
	g.Go(func() (err error) {
		in.CompletedSchedules, err = h.store.Schedules().Count(gctx, schedule.Filter{Completed: &done})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	overview := adherence.BuildOverview(in)
	return &overview, nil
}
