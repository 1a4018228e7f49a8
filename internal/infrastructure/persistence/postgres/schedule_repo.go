package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const scheduleColumns = `id::text, user_id::text, video_id::text, scheduled_date, completed, completed_at, created_at`

type scheduleRepo struct {
	q Querier
}

func (r *scheduleRepo) FindByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	return r.find(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
}

// FindByIDForUpdate holds the row lock until the transaction ends. Outside a
// transaction the lock is released immediately.
func (r *scheduleRepo) FindByIDForUpdate(ctx context.Context, id string) (*schedule.Schedule, error) {
	return r.find(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1 FOR UPDATE`, id)
}

func (r *scheduleRepo) find(ctx context.Context, query, id string) (*schedule.Schedule, error) {
	s, err := scanSchedule(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

func (r *scheduleRepo) Query(ctx context.Context, filter schedule.Filter) ([]*schedule.Schedule, error) {
	w := scheduleWhere(filter)
	rows, err := r.q.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules`+w.String()+` ORDER BY scheduled_date ASC, id ASC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var out []*schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scheduleRepo) Count(ctx context.Context, filter schedule.Filter) (int, error) {
	w := scheduleWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM schedules`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}

func (r *scheduleRepo) CountByVideo(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.q, `SELECT video_id::text, COUNT(*) FROM schedules GROUP BY video_id`)
}

func (r *scheduleRepo) Insert(ctx context.Context, s *schedule.Schedule) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO schedules (id, user_id, video_id, scheduled_date, completed, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.VideoID, s.ScheduledDate, s.Completed, s.CompletedAt, s.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			if constraintName(err) == "schedules_user_id_fkey" {
				return shared.ErrUnknownUser
			}
			return shared.ErrUnknownVideo
		}
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepo) Update(ctx context.Context, s *schedule.Schedule) error {
	tag, err := r.q.Exec(ctx, `UPDATE schedules SET completed = $1, completed_at = $2 WHERE id = $3`,
		s.Completed, s.CompletedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrScheduleNotFound
	}
	return nil
}

func (r *scheduleRepo) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrScheduleNotFound
	}
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, filter schedule.Filter) (int, error) {
	w := scheduleWhere(filter)
	tag, err := r.q.Exec(ctx, `DELETE FROM schedules`+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete schedules: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanSchedule(row pgx.Row) (*schedule.Schedule, error) {
	var s schedule.Schedule
	if err := row.Scan(&s.ID, &s.UserID, &s.VideoID, &s.ScheduledDate, &s.Completed, &s.CompletedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.ScheduledDate = s.ScheduledDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	if s.CompletedAt != nil {
		at := s.CompletedAt.UTC()
		s.CompletedAt = &at
	}
	return &s, nil
}

// countBy runs a two-column (key, count) aggregate.
func countBy(ctx context.Context, q Querier, query string, args ...any) (map[string]int, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		out[key] = n
	}
	return out, rows.Err()
}
