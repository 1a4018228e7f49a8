package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const progressColumns = `id::text, user_id::text, video_id::text, completion_date, rating, notes, created_at`

type progressRepo struct {
	q Querier
}

func (r *progressRepo) FindByID(ctx context.Context, id string) (*progress.Entry, error) {
	e, err := scanEntry(r.q.QueryRow(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE id = $1`, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}
	return e, nil
}

func (r *progressRepo) Query(ctx context.Context, filter progress.Filter) ([]*progress.Entry, error) {
	w := progressWhere(filter)
	clause := w.String()
	paging := w.page(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx,
		`SELECT `+progressColumns+` FROM user_progress`+clause+` ORDER BY completion_date DESC, id ASC`+paging,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	out := []*progress.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *progressRepo) Count(ctx context.Context, filter progress.Filter) (int, error) {
	w := progressWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM user_progress`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count progress: %w", err)
	}
	return n, nil
}

func (r *progressRepo) CountByVideo(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.q, `SELECT video_id::text, COUNT(*) FROM user_progress GROUP BY video_id`)
}

func (r *progressRepo) CountByUser(ctx context.Context, userIDs []string) (map[string]int, error) {
	if len(userIDs) == 0 {
		return countBy(ctx, r.q, `SELECT user_id::text, COUNT(*) FROM user_progress GROUP BY user_id`)
	}
	return countBy(ctx, r.q,
		`SELECT user_id::text, COUNT(*) FROM user_progress WHERE user_id = ANY($1) GROUP BY user_id`, userIDs)
}

func (r *progressRepo) Insert(ctx context.Context, e *progress.Entry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_progress (id, user_id, video_id, completion_date, rating, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.VideoID, e.CompletionDate, e.Rating, e.Notes, e.CreatedAt,
	)
	if err != nil {
		switch {
		case IsForeignKeyViolation(err):
			if constraintName(err) == "user_progress_user_id_fkey" {
				return shared.NewDomainError("progress", "Insert", shared.ErrInvalidReference, "user does not exist")
			}
			return shared.NewDomainError("progress", "Insert", shared.ErrInvalidReference, "video does not exist")
		case IsCheckViolation(err):
			return shared.ErrInvalidRating
		}
		return fmt.Errorf("failed to insert progress entry: %w", err)
	}
	return nil
}

// Update writes the mutable columns only.
func (r *progressRepo) Update(ctx context.Context, e *progress.Entry) error {
	tag, err := r.q.Exec(ctx, `UPDATE user_progress SET rating = $1, notes = $2 WHERE id = $3`, e.Rating, e.Notes, e.ID)
	if err != nil {
		if IsCheckViolation(err) {
			return shared.ErrInvalidRating
		}
		return fmt.Errorf("failed to update progress entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (*progress.Entry, error) {
	var e progress.Entry
	if err := row.Scan(&e.ID, &e.UserID, &e.VideoID, &e.CompletionDate, &e.Rating, &e.Notes, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.CompletionDate = e.CompletionDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
