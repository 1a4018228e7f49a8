package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
	"github.com/rehab-hub/rehab-adherence/internal/testfixtures"
)

const day = 24 * time.Hour

type recordingPurger struct {
	users []string
	err   error
}

func (p *recordingPurger) Purge(_ context.Context, userID string) (int, error) {
	p.users = append(p.users, userID)
	return 0, p.err
}

func seedSchedule(t *testing.T, st *memory.Store, userID, videoID string, at time.Time, completed bool) *schedule.Schedule {
	t.Helper()
	now := testfixtures.ReferenceTime()
	s, err := schedule.New(userID, videoID, at, now)
	require.NoError(t, err)
	if completed {
		require.NoError(t, s.Complete(now))
	}
	require.NoError(t, st.Schedules().Insert(context.Background(), s))
	return s
}

func seedEntry(t *testing.T, st *memory.Store, userID, videoID string, at time.Time) *progress.Entry {
	t.Helper()
	e, err := progress.New(userID, videoID, at, nil, nil, testfixtures.ReferenceTime())
	require.NoError(t, err)
	require.NoError(t, st.Progress().Insert(context.Background(), e))
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Schedules
// ─────────────────────────────────────────────────────────────────────────────

func TestListSchedulesPurgesFirstAndSortsAscending(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	later := seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(2*day), false)
	sooner := seedSchedule(t, st, testfixtures.PatientID, testfixtures.LungeVideoID, now.Add(day), true)
	seedSchedule(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now.Add(day), false)

	purger := &recordingPurger{}
	h := NewListSchedulesHandler(st, purger)

	items, err := h.Handle(context.Background(), ListSchedulesQuery{Caller: testfixtures.Patient()})
	require.NoError(t, err)
	assert.Equal(t, []string{testfixtures.PatientID}, purger.users)
	if assert.Len(t, items, 2) {
		assert.Equal(t, sooner.ID, items[0].ID)
		assert.Equal(t, later.ID, items[1].ID)
	}

	pending := false
	items, err = h.Handle(context.Background(), ListSchedulesQuery{Caller: testfixtures.Patient(), Completed: &pending})
	require.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, later.ID, items[0].ID)
	}
}

func TestListSchedulesEmptyAndErrors(t *testing.T) {
	st := testfixtures.NewStore()
	h := NewListSchedulesHandler(st, &recordingPurger{})

	items, err := h.Handle(context.Background(), ListSchedulesQuery{Caller: testfixtures.Patient()})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	now := testfixtures.ReferenceTime()
	before := now.Add(-day)
	_, err = h.Handle(context.Background(), ListSchedulesQuery{Caller: testfixtures.Patient(), From: &now, To: &before})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	boom := errors.New("boom")
	h = NewListSchedulesHandler(st, &recordingPurger{err: boom})
	_, err = h.Handle(context.Background(), ListSchedulesQuery{Caller: testfixtures.Patient()})
	assert.ErrorIs(t, err, boom)
	assert.False(t, shared.IsBusiness(err))
}

func TestGetScheduleAccess(t *testing.T) {
	st := testfixtures.NewStore()
	s := seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, testfixtures.ReferenceTime().Add(day), false)
	h := NewGetScheduleHandler(st)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller access.Caller
		id     string
		kind   error
	}{
		{"owner", testfixtures.Patient(), s.ID, nil},
		{"expert", testfixtures.Expert(), s.ID, nil},
		{"admin", testfixtures.Admin(), s.ID, nil},
		{"other patient", testfixtures.OtherPatient(), s.ID, shared.ErrForbidden},
		{"missing", testfixtures.Patient(), testfixtures.MissingID, shared.ErrNotFound},
		{"malformed", testfixtures.Patient(), "nope", shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Handle(ctx, GetScheduleQuery{Caller: tt.caller, ScheduleID: tt.id})
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, s.ID, got.ID)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress history
// ─────────────────────────────────────────────────────────────────────────────

func TestListProgressPaging(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	for i := 0; i < 25; i++ {
		seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-time.Duration(i)*time.Hour))
	}
	seedEntry(t, st, testfixtures.PatientID, testfixtures.LungeVideoID, now.Add(-30*day))
	seedEntry(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now)

	h := NewListProgressHandler(st, DefaultLimits())
	ctx := context.Background()

	page, err := h.Handle(ctx, ListProgressQuery{Caller: testfixtures.Patient(), Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 26, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, now.Add(-10*time.Hour), page.Items[0].CompletionDate)

	page, err = h.Handle(ctx, ListProgressQuery{Caller: testfixtures.Patient(), VideoID: testfixtures.LungeVideoID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 20, page.Limit)

	page, err = h.Handle(ctx, ListProgressQuery{Caller: testfixtures.Patient(), Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Len(t, page.Items, 26)

	_, err = h.Handle(ctx, ListProgressQuery{Caller: testfixtures.Patient(), VideoID: "bad"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestListAllProgressIsStaffOnly(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now)
	seedEntry(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now)

	h := NewListProgressHandler(st, DefaultLimits())
	ctx := context.Background()

	_, err := h.HandleAll(ctx, ListAllProgressQuery{Caller: testfixtures.Patient()})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	page, err := h.HandleAll(ctx, ListAllProgressQuery{Caller: testfixtures.Expert()})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 100, page.Limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Summary
// ─────────────────────────────────────────────────────────────────────────────

func TestGetSummary(t *testing.T) {
	st := testfixtures.NewStore()
	clock := testfixtures.NewClock(time.Time{})
	now := clock.Now()
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-time.Hour))
	seedEntry(t, st, testfixtures.PatientID, testfixtures.LungeVideoID, now.Add(-day))
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-2*day))
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-5*day))
	seedEntry(t, st, testfixtures.PatientID, testfixtures.RaiseVideoID, now.Add(-20*day))

	h := NewGetSummaryHandler(st, clock.Func())
	ctx := context.Background()

	s, err := h.Handle(ctx, GetSummaryQuery{Caller: testfixtures.Patient()})
	require.NoError(t, err)
	assert.Equal(t, 5, s.TotalCompleted)
	assert.Equal(t, 4, s.CompletedLast7Days)
	assert.Equal(t, 5, s.CompletedLast30Days)
	assert.Equal(t, 3, s.UniqueVideosCompleted)
	assert.Equal(t, 3, s.CurrentStreak)

	s, err = h.Handle(ctx, GetSummaryQuery{Caller: testfixtures.Expert(), UserID: testfixtures.PatientID})
	require.NoError(t, err)
	assert.Equal(t, 5, s.TotalCompleted)

	s, err = h.Handle(ctx, GetSummaryQuery{Caller: testfixtures.OtherPatient()})
	require.NoError(t, err)
	assert.Zero(t, s.TotalCompleted)
	assert.Zero(t, s.CurrentStreak)

	_, err = h.Handle(ctx, GetSummaryQuery{Caller: testfixtures.OtherPatient(), UserID: testfixtures.PatientID})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = h.Handle(ctx, GetSummaryQuery{Caller: testfixtures.Admin(), UserID: testfixtures.MissingID})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// Analytics
// ─────────────────────────────────────────────────────────────────────────────

func newAnalytics(st *memory.Store) *AnalyticsHandler {
	return NewAnalyticsHandler(st, testfixtures.NewClock(time.Time{}).Func(), DefaultLimits())
}

func TestAnalyticsRejectsPatients(t *testing.T) {
	h := newAnalytics(testfixtures.NewStore())
	ctx := context.Background()
	p := testfixtures.Patient()

	_, err := h.TopVideos(ctx, TopVideosQuery{Caller: p})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = h.CategoryTotals(ctx, CategoryTotalsQuery{Caller: p})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = h.Engagement(ctx, EngagementQuery{Caller: p})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = h.ActiveUsers(ctx, ActiveUsersQuery{Caller: p})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = h.Overview(ctx, OverviewQuery{Caller: p})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = h.HospitalBreakdown(ctx, HospitalBreakdownQuery{Caller: testfixtures.Expert()})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTopVideosAndCategoryTotals(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	for i := 0; i < 3; i++ {
		seedEntry(t, st, testfixtures.PatientID, testfixtures.RaiseVideoID, now.Add(-time.Duration(i)*day))
	}
	seedEntry(t, st, testfixtures.PatientID, testfixtures.LungeVideoID, now)
	seedEntry(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now)
	seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(day), false)

	h := newAnalytics(st)
	ctx := context.Background()

	top, err := h.TopVideos(ctx, TopVideosQuery{Caller: testfixtures.Expert(), Limit: 2})
	require.NoError(t, err)
	if assert.Len(t, top, 2) {
		assert.Equal(t, testfixtures.RaiseVideoID, top[0].ID)
		assert.Equal(t, "Shoulder", top[0].Category)
		assert.Equal(t, 3, top[0].Completions)
		// Squat and lunge tie at one; the lower id wins.
		assert.Equal(t, testfixtures.SquatVideoID, top[1].ID)
		assert.Equal(t, 1, top[1].Scheduled)
	}

	_, err = h.TopVideos(ctx, TopVideosQuery{Caller: testfixtures.Expert(), Limit: -1})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	totals, err := h.CategoryTotals(ctx, CategoryTotalsQuery{Caller: testfixtures.Admin()})
	require.NoError(t, err)
	if assert.Len(t, totals, 2) {
		assert.Equal(t, "Knee", totals[0].Name)
		assert.Equal(t, 2, totals[0].VideoCount)
		assert.Equal(t, 2, totals[0].TotalCompletions)
		assert.Equal(t, "Shoulder", totals[1].Name)
		assert.Equal(t, 3, totals[1].TotalCompletions)
	}
}

func TestEngagement(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	for i := 0; i < 10; i++ {
		seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-time.Duration(i)*day), i < 7)
	}
	seedSchedule(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now.Add(-60*day), true)
	for i := 0; i < 4; i++ {
		seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-time.Duration(i)*day))
	}

	h := newAnalytics(st)
	rows, err := h.Engagement(context.Background(), EngagementQuery{Caller: testfixtures.Expert()})
	require.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, testfixtures.PatientID, rows[0].UserID)
		assert.Equal(t, "Pat", rows[0].Name)
		assert.Equal(t, 10, rows[0].Scheduled)
		assert.Equal(t, 7, rows[0].Completed)
		assert.Equal(t, 70, rows[0].CompletionRate)
		assert.Equal(t, 4, rows[0].TotalProgress)
	}

	rows, err = h.Engagement(context.Background(), EngagementQuery{Caller: testfixtures.Expert(), Days: 90})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = h.Engagement(context.Background(), EngagementQuery{Caller: testfixtures.Expert(), Days: -3})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestActiveUsersDenseSeries(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now)
	seedEntry(t, st, testfixtures.PatientID, testfixtures.LungeVideoID, now.Add(-time.Hour))
	seedEntry(t, st, testfixtures.OtherPatientID, testfixtures.SquatVideoID, now.Add(-3*day))
	seedEntry(t, st, testfixtures.LonePatientID, testfixtures.SquatVideoID, now.Add(-10*day))

	h := newAnalytics(st)
	report, err := h.ActiveUsers(context.Background(), ActiveUsersQuery{Caller: testfixtures.Admin()})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Days)
	assert.Equal(t, 2, report.ActiveUsers)
	require.Len(t, report.DailyActivity, 7)

	total := 0
	for _, d := range report.DailyActivity {
		total += d.Count
	}
	// Two completions by one user on the same day count once.
	assert.Equal(t, 2, total)
	assert.Equal(t, "2024-06-10", report.DailyActivity[6].Date)
	assert.Equal(t, 1, report.DailyActivity[6].Count)
}

func TestHospitalBreakdownAndOverview(t *testing.T) {
	st := testfixtures.NewStore()
	now := testfixtures.ReferenceTime()
	seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now, true)
	seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(day), false)
	seedSchedule(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(2*day), false)
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now)
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-10*day))
	seedEntry(t, st, testfixtures.PatientID, testfixtures.SquatVideoID, now.Add(-40*day))

	h := newAnalytics(st)
	ctx := context.Background()

	hospitals, err := h.HospitalBreakdown(ctx, HospitalBreakdownQuery{Caller: testfixtures.Admin()})
	require.NoError(t, err)
	assert.Equal(t, []user.HospitalCount{
		{Hospital: testfixtures.GeneralCenter, PatientCount: 1},
		{Hospital: testfixtures.NorthClinic, PatientCount: 1},
	}, hospitals)

	o, err := h.Overview(ctx, OverviewQuery{Caller: testfixtures.Expert()})
	require.NoError(t, err)
	assert.Equal(t, 3, o.Users.Patients)
	assert.Equal(t, 1, o.Users.Experts)
	assert.Equal(t, 1, o.Users.Admins)
	assert.Equal(t, 3, o.Content.Videos)
	assert.Equal(t, 2, o.Content.Categories)
	assert.Equal(t, 3, o.Activity.TotalCompletions)
	assert.Equal(t, 1, o.Activity.CompletedLast7Days)
	assert.Equal(t, 2, o.Activity.CompletedLast30Days)
	assert.Equal(t, 3, o.Activity.TotalSchedules)
	assert.Equal(t, 1, o.Activity.CompletedSchedules)
	assert.Equal(t, 33, o.Activity.CompletionRate)
}
