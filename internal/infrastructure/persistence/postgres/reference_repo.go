package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/pkg/circuitbreaker"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `id::text, email, name, role, hospital, assigned_expert_id::text, created_at, updated_at`

// userRepo reads users, consulting the cache first when one is configured.
type userRepo struct {
	q     Querier
	cache user.Cache
	log   *logger.Logger
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	if r.cache != nil {
		u, err := r.cache.Get(ctx, id)
		if err == nil {
			return u, nil
		}
		if !shared.IsNotFound(err) && !circuitbreaker.IsRejected(err) {
			r.log.Warn("user cache read failed", logger.UserID(id), logger.Err(err))
		}
	}

	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, u); err != nil && !circuitbreaker.IsRejected(err) {
			r.log.Warn("user cache write failed", logger.UserID(id), logger.Err(err))
		}
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	w := &where{}
	if filter.Role != "" {
		w.add("role = ?", string(filter.Role))
	}
	if len(filter.IDs) > 0 {
		w.add("id = ANY(?)", filter.IDs)
	}

	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepo) CountByRole(ctx context.Context) (map[user.Role]int, error) {
	rows, err := r.q.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[user.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[user.Role(role)] = n
	}
	return counts, rows.Err()
}

func (r *userRepo) GroupPatientsByHospital(ctx context.Context) ([]user.HospitalCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hospital, COUNT(*)
		FROM users
		WHERE role = 'patient' AND hospital IS NOT NULL AND hospital <> ''
		GROUP BY hospital
		ORDER BY hospital
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to group users by hospital: %w", err)
	}
	defer rows.Close()

	var out []user.HospitalCount
	for rows.Next() {
		var hc user.HospitalCount
		if err := rows.Scan(&hc.Hospital, &hc.PatientCount); err != nil {
			return nil, fmt.Errorf("failed to scan hospital count: %w", err)
		}
		out = append(out, hc)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Hospital, &u.AssignedExpertID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	return &u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type catalogRepo struct {
	q Querier
}

func (r *catalogRepo) FindVideo(ctx context.Context, id string) (*catalog.Video, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id::text, title, duration_seconds, difficulty, category_id::text
		FROM videos WHERE id = $1`, id)
	v, err := scanVideo(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

func (r *catalogRepo) FindCategory(ctx context.Context, id string) (*catalog.Category, error) {
	var c catalog.Category
	err := r.q.QueryRow(ctx, `
		SELECT id::text, name, description, display_order
		FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *catalogRepo) ListVideos(ctx context.Context) ([]*catalog.Video, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, title, duration_seconds, difficulty, category_id::text
		FROM videos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, name, description, display_order
		FROM categories ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func scanVideo(row pgx.Row) (*catalog.Video, error) {
	var v catalog.Video
	var difficulty string
	if err := row.Scan(&v.ID, &v.Title, &v.DurationSeconds, &difficulty, &v.CategoryID); err != nil {
		return nil, err
	}
	v.Difficulty = catalog.Difficulty(difficulty)
	return &v, nil
}
