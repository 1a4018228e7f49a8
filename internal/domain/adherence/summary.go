package adherence

import (
	"time"

	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// Summary is one user's adherence at a point in time.
type Summary struct {
	TotalCompleted        int `json:"total_completed"`
	CompletedLast7Days    int `json:"completed_last_7_days"`
	CompletedLast30Days   int `json:"completed_last_30_days"`
	UniqueVideosCompleted int `json:"unique_videos_completed"`
	CurrentStreak         int `json:"current_streak"`
}

// Summarize builds a Summary from one user's completions. The 7 and 30 day
// windows are measured as instants back from now.
func Summarize(completions []Completion, now time.Time) Summary {
	since7 := timeutil.DaysAgo(now, 7)
	since30 := timeutil.DaysAgo(now, 30)

	s := Summary{TotalCompleted: len(completions)}
	videos := make(map[string]struct{})
	dates := make([]time.Time, 0, len(completions))

	for _, c := range completions {
		if !c.At.Before(since7) {
			s.CompletedLast7Days++
		}
		if !c.At.Before(since30) {
			s.CompletedLast30Days++
		}
		videos[c.VideoID] = struct{}{}
		dates = append(dates, c.At)
	}

	s.UniqueVideosCompleted = len(videos)
	s.CurrentStreak = Streak(dates, now)
	return s
}
