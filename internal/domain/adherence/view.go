// Package adherence computes adherence and engagement reports. Every function
// here is pure: callers load the records, the package only does arithmetic
// over them. All calendar math is in UTC.
package adherence

import (
	"math"
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
)

// Completion is the slice of a progress entry analytics care about.
type Completion struct {
	UserID  string
	VideoID string
	At      time.Time
}

// Planned is the slice of a schedule analytics care about.
type Planned struct {
	UserID        string
	ScheduledDate time.Time
	Completed     bool
}

// Completions projects progress entries.
func Completions(entries []*progress.Entry) []Completion {
	out := make([]Completion, 0, len(entries))
	for _, e := range entries {
		out = append(out, Completion{UserID: e.UserID, VideoID: e.VideoID, At: e.CompletionDate.UTC()})
	}
	return out
}

// Plans projects schedules.
func Plans(schedules []*schedule.Schedule) []Planned {
	out := make([]Planned, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, Planned{UserID: s.UserID, ScheduledDate: s.ScheduledDate.UTC(), Completed: s.Completed})
	}
	return out
}

// Rate returns round(part / whole * 100), or 0 when whole is 0.
func Rate(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
