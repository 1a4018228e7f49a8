package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

// ═══════════════════════════════════════════════════════════════════════════
// Users
// ═══════════════════════════════════════════════════════════════════════════

type userRepo struct{ st state }

func (r *userRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	var out *user.User
	r.st.read(func(d *data) {
		if u, ok := d.users[id]; ok {
			out = copyUser(u)
		}
	})
	if out == nil {
		return nil, shared.ErrUserNotFound
	}
	return out, nil
}

func (r *userRepo) List(_ context.Context, filter user.Filter) ([]*user.User, error) {
	ids := toSet(filter.IDs)
	var out []*user.User
	r.st.read(func(d *data) {
		for _, u := range d.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if ids != nil {
				if _, ok := ids[u.ID]; !ok {
					continue
				}
			}
			out = append(out, copyUser(u))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) CountByRole(_ context.Context) (map[user.Role]int, error) {
	counts := make(map[user.Role]int)
	r.st.read(func(d *data) {
		for _, u := range d.users {
			counts[u.Role]++
		}
	})
	return counts, nil
}

func (r *userRepo) GroupPatientsByHospital(_ context.Context) ([]user.HospitalCount, error) {
	counts := make(map[string]int)
	r.st.read(func(d *data) {
		for _, u := range d.users {
			if u.IsPatient() && u.Hospital != nil && *u.Hospital != "" {
				counts[*u.Hospital]++
			}
		}
	})
	out := make([]user.HospitalCount, 0, len(counts))
	for h, n := range counts {
		out = append(out, user.HospitalCount{Hospital: h, PatientCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hospital < out[j].Hospital })
	return out, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Catalog
// ═══════════════════════════════════════════════════════════════════════════

type catalogRepo struct{ st state }

func (r *catalogRepo) FindVideo(_ context.Context, id string) (*catalog.Video, error) {
	var out *catalog.Video
	r.st.read(func(d *data) {
		if v, ok := d.videos[id]; ok {
			cp := *v
			out = &cp
		}
	})
	if out == nil {
		return nil, shared.ErrVideoNotFound
	}
	return out, nil
}

func (r *catalogRepo) FindCategory(_ context.Context, id string) (*catalog.Category, error) {
	var out *catalog.Category
	r.st.read(func(d *data) {
		if c, ok := d.categories[id]; ok {
			cp := *c
			out = &cp
		}
	})
	if out == nil {
		return nil, shared.ErrCategoryNotFound
	}
	return out, nil
}

func (r *catalogRepo) ListVideos(_ context.Context) ([]*catalog.Video, error) {
	var out []*catalog.Video
	r.st.read(func(d *data) {
		for _, v := range d.videos {
			cp := *v
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogRepo) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	var out []*catalog.Category
	r.st.read(func(d *data) {
		for _, c := range d.categories {
			cp := *c
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Schedules
// ═══════════════════════════════════════════════════════════════════════════

type scheduleRepo struct{ st state }

func (r *scheduleRepo) FindByID(_ context.Context, id string) (*schedule.Schedule, error) {
	var out *schedule.Schedule
	r.st.read(func(d *data) {
		if s, ok := d.schedules[id]; ok {
			out = copySchedule(s)
		}
	})
	if out == nil {
		return nil, shared.ErrScheduleNotFound
	}
	return out, nil
}

// FindByIDForUpdate needs no row lock: transactions already run one at a time.
func (r *scheduleRepo) FindByIDForUpdate(ctx context.Context, id string) (*schedule.Schedule, error) {
	return r.FindByID(ctx, id)
}

func (r *scheduleRepo) Query(_ context.Context, filter schedule.Filter) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	r.st.read(func(d *data) {
		for _, s := range d.schedules {
			if matchSchedule(s, filter) {
				out = append(out, copySchedule(s))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *scheduleRepo) Count(_ context.Context, filter schedule.Filter) (int, error) {
	n := 0
	r.st.read(func(d *data) {
		for _, s := range d.schedules {
			if matchSchedule(s, filter) {
				n++
			}
		}
	})
	return n, nil
}

func (r *scheduleRepo) CountByVideo(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	r.st.read(func(d *data) {
		for _, s := range d.schedules {
			counts[s.VideoID]++
		}
	})
	return counts, nil
}

func (r *scheduleRepo) Insert(_ context.Context, s *schedule.Schedule) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[s.UserID]; !ok {
			return shared.ErrUnknownUser
		}
		if _, ok := d.videos[s.VideoID]; !ok {
			return shared.ErrUnknownVideo
		}
		if _, ok := d.schedules[s.ID]; ok {
			return fmt.Errorf("insert schedule %s: duplicate id", s.ID)
		}
		d.schedules[s.ID] = copySchedule(s)
		return nil
	})
}

func (r *scheduleRepo) Update(_ context.Context, s *schedule.Schedule) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.schedules[s.ID]
		if !ok {
			return shared.ErrScheduleNotFound
		}
		next := copySchedule(cur)
		next.Completed = s.Completed
		next.CompletedAt = nil
		if s.CompletedAt != nil {
			at := *s.CompletedAt
			next.CompletedAt = &at
		}
		d.schedules[s.ID] = next
		return nil
	})
}

func (r *scheduleRepo) DeleteByID(_ context.Context, id string) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.schedules[id]; !ok {
			return shared.ErrScheduleNotFound
		}
		delete(d.schedules, id)
		return nil
	})
}

func (r *scheduleRepo) Delete(_ context.Context, filter schedule.Filter) (int, error) {
	n := 0
	err := r.st.write(func(d *data) error {
		for id, s := range d.schedules {
			if matchSchedule(s, filter) {
				delete(d.schedules, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func matchSchedule(s *schedule.Schedule, f schedule.Filter) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, s.UserID) {
		return false
	}
	if f.VideoID != "" && s.VideoID != f.VideoID {
		return false
	}
	if f.From != nil && s.ScheduledDate.Before(*f.From) {
		return false
	}
	if f.To != nil && s.ScheduledDate.After(*f.To) {
		return false
	}
	if f.Before != nil && !s.ScheduledDate.Before(*f.Before) {
		return false
	}
	if f.Completed != nil && s.Completed != *f.Completed {
		return false
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress
// ═══════════════════════════════════════════════════════════════════════════

type progressRepo struct{ st state }

func (r *progressRepo) FindByID(_ context.Context, id string) (*progress.Entry, error) {
	var out *progress.Entry
	r.st.read(func(d *data) {
		if e, ok := d.progress[id]; ok {
			out = copyEntry(e)
		}
	})
	if out == nil {
		return nil, shared.ErrProgressNotFound
	}
	return out, nil
}

func (r *progressRepo) Query(_ context.Context, filter progress.Filter) ([]*progress.Entry, error) {
	var out []*progress.Entry
	r.st.read(func(d *data) {
		for _, e := range d.progress {
			if matchEntry(e, filter) {
				out = append(out, copyEntry(e))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletionDate.Equal(out[j].CompletionDate) {
			return out[i].CompletionDate.After(out[j].CompletionDate)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*progress.Entry{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *progressRepo) Count(_ context.Context, filter progress.Filter) (int, error) {
	n := 0
	r.st.read(func(d *data) {
		for _, e := range d.progress {
			if matchEntry(e, filter) {
				n++
			}
		}
	})
	return n, nil
}

func (r *progressRepo) CountByVideo(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	r.st.read(func(d *data) {
		for _, e := range d.progress {
			counts[e.VideoID]++
		}
	})
	return counts, nil
}

func (r *progressRepo) CountByUser(_ context.Context, userIDs []string) (map[string]int, error) {
	ids := toSet(userIDs)
	counts := make(map[string]int)
	r.st.read(func(d *data) {
		for _, e := range d.progress {
			if ids != nil {
				if _, ok := ids[e.UserID]; !ok {
					continue
				}
			}
			counts[e.UserID]++
		}
	})
	return counts, nil
}

func (r *progressRepo) Insert(_ context.Context, e *progress.Entry) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[e.UserID]; !ok {
			return shared.NewDomainError("progress", "Insert", shared.ErrInvalidReference, "user does not exist")
		}
		if _, ok := d.videos[e.VideoID]; !ok {
			return shared.NewDomainError("progress", "Insert", shared.ErrInvalidReference, "video does not exist")
		}
		if _, ok := d.progress[e.ID]; ok {
			return fmt.Errorf("insert progress %s: duplicate id", e.ID)
		}
		d.progress[e.ID] = copyEntry(e)
		return nil
	})
}

func (r *progressRepo) Update(_ context.Context, e *progress.Entry) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.progress[e.ID]
		if !ok {
			return shared.ErrProgressNotFound
		}
		src := copyEntry(e)
		next := copyEntry(cur)
		next.Notes = src.Notes
		next.Rating = src.Rating
		d.progress[e.ID] = next
		return nil
	})
}

func matchEntry(e *progress.Entry, f progress.Filter) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.VideoID != "" && e.VideoID != f.VideoID {
		return false
	}
	if f.From != nil && e.CompletionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CompletionDate.After(*f.To) {
		return false
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
