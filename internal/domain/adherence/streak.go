package adherence

import (
	"time"

	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// Streak counts consecutive calendar days with at least one completion,
// walking back from the day containing today. Today missing means 0.
func Streak(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		days[timeutil.StartOfDay(d)] = struct{}{}
	}

	streak := 0
	for day := timeutil.StartOfDay(today); ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
	}
}
