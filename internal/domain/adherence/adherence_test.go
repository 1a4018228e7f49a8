package adherence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

var now = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func daysBack(n int, hour int) time.Time {
	d := now.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"no history", nil, 0},
		{"gap stops the count", []time.Time{daysBack(0, 8), daysBack(1, 8), daysBack(2, 8), daysBack(4, 8)}, 3},
		{"today missing", []time.Time{daysBack(1, 8), daysBack(2, 8)}, 0},
		{"same day counts once", []time.Time{daysBack(0, 1), daysBack(0, 9), daysBack(0, 23)}, 1},
		{"order does not matter", []time.Time{daysBack(2, 8), daysBack(0, 8), daysBack(1, 23)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.dates, now))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil, now)
		assert.Equal(t, Summary{}, s)
	})

	t.Run("windows and distinct videos", func(t *testing.T) {
		completions := []Completion{
			{UserID: "u", VideoID: "a", At: daysBack(0, 8)},
			{UserID: "u", VideoID: "a", At: daysBack(1, 8)},
			{UserID: "u", VideoID: "b", At: now.Add(-7 * 24 * time.Hour)},
			{UserID: "u", VideoID: "b", At: now.Add(-10 * 24 * time.Hour)},
			{UserID: "u", VideoID: "c", At: now.Add(-45 * 24 * time.Hour)},
		}

		s := Summarize(completions, now)
		assert.Equal(t, 5, s.TotalCompleted)
		assert.Equal(t, 3, s.CompletedLast7Days)
		assert.Equal(t, 4, s.CompletedLast30Days)
		assert.Equal(t, 3, s.UniqueVideosCompleted)
		assert.Equal(t, 2, s.CurrentStreak)
	})
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 70, Rate(7, 10))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 33, Rate(1, 3))
	assert.Equal(t, 100, Rate(4, 4))
}

func TestTopVideos(t *testing.T) {
	categories := []*catalog.Category{{ID: "c1", Name: "Knee"}}
	videos := []*catalog.Video{
		{ID: "v3", Title: "Squat", CategoryID: "c1"},
		{ID: "v1", Title: "Lunge", CategoryID: "c1"},
		{ID: "v2", Title: "Bridge", CategoryID: "c1"},
	}
	completions := map[string]int{"v1": 4, "v2": 9, "v3": 4}
	scheduled := map[string]int{"v1": 5, "v3": 1}

	rows := TopVideos(videos, categories, completions, scheduled, 10)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"v2", "v1", "v3"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, "Knee", rows[0].Category)
	assert.Equal(t, 5, rows[1].Scheduled)
	assert.Equal(t, 0, rows[0].Scheduled)

	assert.Len(t, TopVideos(videos, categories, completions, scheduled, 2), 2)
}

func TestCategoryTotals(t *testing.T) {
	categories := []*catalog.Category{
		{ID: "c2", Name: "Shoulder", DisplayOrder: 2},
		{ID: "c1", Name: "Knee", DisplayOrder: 1},
		{ID: "c3", Name: "Empty", DisplayOrder: 3},
	}
	videos := []*catalog.Video{
		{ID: "v1", CategoryID: "c1"},
		{ID: "v2", CategoryID: "c1"},
		{ID: "v3", CategoryID: "c2"},
		{ID: "v4", CategoryID: "gone"},
	}
	completions := map[string]int{"v1": 2, "v2": 3, "v3": 1, "v4": 50}

	rows := CategoryTotals(categories, videos, completions)
	require.Len(t, rows, 3)
	assert.Equal(t, CategoryStat{ID: "c1", Name: "Knee", VideoCount: 2, TotalCompletions: 5}, rows[0])
	assert.Equal(t, CategoryStat{ID: "c2", Name: "Shoulder", VideoCount: 1, TotalCompletions: 1}, rows[1])
	assert.Equal(t, CategoryStat{ID: "c3", Name: "Empty"}, rows[2])
}

func TestEngagement(t *testing.T) {
	patients := []*user.User{
		{ID: "p1", Name: "Ann", Role: user.RolePatient},
		{ID: "p2", Name: "Bob", Role: user.RolePatient},
		{ID: "p3", Name: "Cat", Role: user.RolePatient},
		{ID: "e1", Name: "Doc", Role: user.RoleExpert},
	}

	var plans []Planned
	for i := 0; i < 10; i++ {
		plans = append(plans, Planned{UserID: "p1", ScheduledDate: daysBack(i, 9), Completed: i < 7})
	}
	plans = append(plans,
		Planned{UserID: "p1", ScheduledDate: daysBack(60, 9), Completed: true},
		Planned{UserID: "p2", ScheduledDate: daysBack(3, 9)},
		Planned{UserID: "p3", ScheduledDate: daysBack(45, 9), Completed: true},
		Planned{UserID: "e1", ScheduledDate: daysBack(1, 9)},
	)
	progress := map[string]int{"p1": 8, "p2": 8, "p3": 20}

	rows := Engagement(patients, plans, progress, 30, now, 20)
	require.Len(t, rows, 2)

	assert.Equal(t, "p1", rows[0].UserID)
	assert.Equal(t, 10, rows[0].Scheduled)
	assert.Equal(t, 7, rows[0].Completed)
	assert.Equal(t, 70, rows[0].CompletionRate)
	assert.Equal(t, 8, rows[0].TotalProgress)

	assert.Equal(t, "p2", rows[1].UserID)
	assert.Equal(t, 0, rows[1].CompletionRate)
}

func TestEngagementCap(t *testing.T) {
	var patients []*user.User
	var plans []Planned
	progress := map[string]int{}
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("p%02d", i)
		patients = append(patients, &user.User{ID: id, Role: user.RolePatient})
		plans = append(plans, Planned{UserID: id, ScheduledDate: now})
		progress[id] = i
	}

	rows := Engagement(patients, plans, progress, 30, now, 20)
	require.Len(t, rows, 20)
	assert.Equal(t, "p24", rows[0].UserID)
	assert.Equal(t, "p05", rows[19].UserID)
}

func TestActiveUsers(t *testing.T) {
	completions := []Completion{
		{UserID: "a", At: daysBack(0, 8)},
		{UserID: "a", At: daysBack(0, 20)},
		{UserID: "b", At: daysBack(0, 9)},
		{UserID: "b", At: daysBack(3, 9)},
		{UserID: "c", At: daysBack(7, 9)},
	}

	report := ActiveUsers(completions, 7, now)
	require.Len(t, report.DailyActivity, 7)
	assert.Equal(t, 2, report.ActiveUsers)
	assert.Equal(t, "2024-06-04", report.DailyActivity[0].Date)
	assert.Equal(t, "2024-06-10", report.DailyActivity[6].Date)
	assert.Equal(t, 2, report.DailyActivity[6].Count)
	assert.Equal(t, 1, report.DailyActivity[3].Count)
	assert.Equal(t, 0, report.DailyActivity[0].Count)

	empty := ActiveUsers(nil, 7, now)
	assert.Len(t, empty.DailyActivity, 7)
	assert.Zero(t, empty.ActiveUsers)
}

func TestHospitalBreakdown(t *testing.T) {
	rows := HospitalBreakdown([]user.HospitalCount{
		{Hospital: "St. Mary", PatientCount: 2},
		{Hospital: "", PatientCount: 9},
		{Hospital: "Alpha", PatientCount: 2},
		{Hospital: "General", PatientCount: 5},
	})
	assert.Equal(t, []user.HospitalCount{
		{Hospital: "General", PatientCount: 5},
		{Hospital: "Alpha", PatientCount: 2},
		{Hospital: "St. Mary", PatientCount: 2},
	}, rows)
}

func TestBuildOverview(t *testing.T) {
	o := BuildOverview(OverviewInput{
		Roles:              map[user.Role]int{user.RolePatient: 4, user.RoleExpert: 2},
		Videos:             12,
		Categories:         5,
		TotalCompletions:   30,
		TotalSchedules:     8,
		CompletedSchedules: 6,
	})
	assert.Equal(t, 4, o.Users.Patients)
	assert.Equal(t, 0, o.Users.Admins)
	assert.Equal(t, 12, o.Content.Videos)
	assert.Equal(t, 75, o.Activity.CompletionRate)
}
