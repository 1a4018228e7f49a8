package postgres

import (
	"strconv"
	"strings"

	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
)

// where accumulates AND-ed conditions with numbered placeholders. Each
// condition holds a single "?" that becomes the next $n.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// next returns the placeholder for an argument appended after the filter.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

func scheduleWhere(f schedule.Filter) *where {
	w := &where{}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if len(f.UserIDs) > 0 {
		w.add("user_id = ANY(?)", f.UserIDs)
	}
	if f.VideoID != "" {
		w.add("video_id = ?", f.VideoID)
	}
	if f.From != nil {
		w.add("scheduled_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("scheduled_date <= ?", *f.To)
	}
	if f.Before != nil {
		w.add("scheduled_date < ?", *f.Before)
	}
	if f.Completed != nil {
		w.add("completed = ?", *f.Completed)
	}
	return w
}

func progressWhere(f progress.Filter) *where {
	w := &where{}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.VideoID != "" {
		w.add("video_id = ?", f.VideoID)
	}
	if f.From != nil {
		w.add("completion_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("completion_date <= ?", *f.To)
	}
	return w
}

// page renders LIMIT/OFFSET for a progress filter.
func (w *where) page(limit, offset int) string {
	var sb strings.Builder
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(w.next(limit))
	}
	if offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(w.next(offset))
	}
	return sb.String()
}
