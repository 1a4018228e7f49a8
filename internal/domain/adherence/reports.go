package adherence

import (
	"sort"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// Videos and categories
// ═══════════════════════════════════════════════════════════════════════════

// VideoStat is one row of the top videos report.
type VideoStat struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Completions int    `json:"completions"`
	Scheduled   int    `json:"scheduled"`
}

// TopVideos ranks videos by completion count descending, ties by lower id,
// and keeps at most limit rows. limit <= 0 keeps all.
func TopVideos(videos []*catalog.Video, categories []*catalog.Category, completions, scheduled map[string]int, limit int) []VideoStat {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := make([]VideoStat, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, VideoStat{
			ID:          v.ID,
			Title:       v.Title,
			Category:    names[v.CategoryID],
			Completions: completions[v.ID],
			Scheduled:   scheduled[v.ID],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Completions != rows[j].Completions {
			return rows[i].Completions > rows[j].Completions
		}
		return rows[i].ID < rows[j].ID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// CategoryStat is one row of the category totals report.
type CategoryStat struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	VideoCount       int    `json:"video_count"`
	TotalCompletions int    `json:"total_completions"`
}

// CategoryTotals sums member video completions per category, in display order.
func CategoryTotals(categories []*catalog.Category, videos []*catalog.Video, completions map[string]int) []CategoryStat {
	index := make(map[string]int, len(categories))
	ordered := make([]*catalog.Category, len(categories))
	copy(ordered, categories)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].Name < ordered[j].Name
	})

	rows := make([]CategoryStat, len(ordered))
	for i, c := range ordered {
		rows[i] = CategoryStat{ID: c.ID, Name: c.Name}
		index[c.ID] = i
	}

	for _, v := range videos {
		i, ok := index[v.CategoryID]
		if !ok {
			continue
		}
		rows[i].VideoCount++
		rows[i].TotalCompletions += completions[v.ID]
	}
	return rows
}

// ═══════════════════════════════════════════════════════════════════════════
// Engagement
// ═══════════════════════════════════════════════════════════════════════════

// EngagementRow is one patient's adherence inside the window.
type EngagementRow struct {
	UserID         string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Scheduled      int    `json:"total_scheduled"`
	Completed      int    `json:"completed"`
	TotalProgress  int    `json:"total_progress"`
	CompletionRate int    `json:"completion_rate"`
}

// Engagement reports every patient with at least one schedule dated at or
// after now-days. Scheduled and Completed count in-window schedules only;
// TotalProgress is the patient's whole history. Rows are ordered by
// TotalProgress descending, ties by user id, and capped at limit.
func Engagement(patients []*user.User, plans []Planned, progressCounts map[string]int, days int, now time.Time, limit int) []EngagementRow {
	if days <= 0 {
		return []EngagementRow{}
	}
	since := timeutil.DaysAgo(now, days)

	type tally struct{ scheduled, completed int }
	tallies := make(map[string]*tally)
	for _, p := range plans {
		if p.ScheduledDate.Before(since) {
			continue
		}
		t, ok := tallies[p.UserID]
		if !ok {
			t = &tally{}
			tallies[p.UserID] = t
		}
		t.scheduled++
		if p.Completed {
			t.completed++
		}
	}

	rows := make([]EngagementRow, 0, len(tallies))
	for _, u := range patients {
		if !u.IsPatient() {
			continue
		}
		t, ok := tallies[u.ID]
		if !ok {
			continue
		}
		rows = append(rows, EngagementRow{
			UserID:         u.ID,
			Name:           u.Name,
			Email:          u.Email,
			Scheduled:      t.scheduled,
			Completed:      t.completed,
			TotalProgress:  progressCounts[u.ID],
			CompletionRate: Rate(t.completed, t.scheduled),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalProgress != rows[j].TotalProgress {
			return rows[i].TotalProgress > rows[j].TotalProgress
		}
		return rows[i].UserID < rows[j].UserID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// ═══════════════════════════════════════════════════════════════════════════
// Active users
// ═══════════════════════════════════════════════════════════════════════════

// DailyActivity is the number of distinct active users on one date.
type DailyActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ActiveUsersReport covers a window of whole calendar days ending today.
type ActiveUsersReport struct {
	Days          int             `json:"days"`
	ActiveUsers   int             `json:"active_users"`
	DailyActivity []DailyActivity `json:"daily_activity"`
}

// WindowStart returns midnight of the first day of a days-long window ending
// on the day containing now.
func WindowStart(days int, now time.Time) time.Time {
	return timeutil.StartOfDay(now).AddDate(0, 0, -(days - 1))
}

// ActiveUsers counts distinct users with a completion in the window. The
// series holds exactly days entries, zero-activity days included.
func ActiveUsers(completions []Completion, days int, now time.Time) ActiveUsersReport {
	report := ActiveUsersReport{Days: days, DailyActivity: []DailyActivity{}}
	if days <= 0 {
		return report
	}

	start := WindowStart(days, now)
	end := timeutil.EndOfDay(now)

	users := make(map[string]struct{})
	perDay := make(map[string]map[string]struct{})
	for _, c := range completions {
		if c.At.Before(start) || c.At.After(end) {
			continue
		}
		users[c.UserID] = struct{}{}
		key := timeutil.DateKey(c.At)
		if perDay[key] == nil {
			perDay[key] = make(map[string]struct{})
		}
		perDay[key][c.UserID] = struct{}{}
	}

	report.ActiveUsers = len(users)
	for _, day := range timeutil.DayRange(now, days) {
		key := timeutil.DateKey(day)
		report.DailyActivity = append(report.DailyActivity, DailyActivity{Date: key, Count: len(perDay[key])})
	}
	return report
}

// ═══════════════════════════════════════════════════════════════════════════
// Hospitals and overview
// ═══════════════════════════════════════════════════════════════════════════

// HospitalBreakdown drops unnamed hospitals and orders by patient count
// descending, then hospital name.
func HospitalBreakdown(counts []user.HospitalCount) []user.HospitalCount {
	rows := make([]user.HospitalCount, 0, len(counts))
	for _, c := range counts {
		if c.Hospital == "" {
			continue
		}
		rows = append(rows, c)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PatientCount != rows[j].PatientCount {
			return rows[i].PatientCount > rows[j].PatientCount
		}
		return rows[i].Hospital < rows[j].Hospital
	})
	return rows
}

// Overview is the platform-wide dashboard.
type Overview struct {
	Users struct {
		Patients int `json:"patients"`
		Experts  int `json:"experts"`
		Admins   int `json:"admins"`
	} `json:"users"`
	Content struct {
		Videos     int `json:"videos"`
		Categories int `json:"categories"`
	} `json:"content"`
	Activity struct {
		TotalCompletions    int `json:"total_completions"`
		CompletedLast7Days  int `json:"completed_last_7_days"`
		CompletedLast30Days int `json:"completed_last_30_days"`
		TotalSchedules      int `json:"total_schedules"`
		CompletedSchedules  int `json:"completed_schedules"`
		CompletionRate      int `json:"completion_rate"`
	} `json:"activity"`
}

// OverviewInput carries the counts an Overview is built from.
type OverviewInput struct {
	Roles               map[user.Role]int
	Videos              int
	Categories          int
	TotalCompletions    int
	CompletedLast7Days  int
	CompletedLast30Days int
	TotalSchedules      int
	CompletedSchedules  int
}

// BuildOverview assembles an Overview.
func BuildOverview(in OverviewInput) Overview {
	var o Overview
	o.Users.Patients = in.Roles[user.RolePatient]
	o.Users.Experts = in.Roles[user.RoleExpert]
	o.Users.Admins = in.Roles[user.RoleAdmin]
	o.Content.Videos = in.Videos
	o.Content.Categories = in.Categories
	o.Activity.TotalCompletions = in.TotalCompletions
	o.Activity.CompletedLast7Days = in.CompletedLast7Days
	o.Activity.CompletedLast30Days = in.CompletedLast30Days
	o.Activity.TotalSchedules = in.TotalSchedules
	o.Activity.CompletedSchedules = in.CompletedSchedules
	o.Activity.CompletionRate = Rate(in.CompletedSchedules, in.TotalSchedules)
	return o
}
