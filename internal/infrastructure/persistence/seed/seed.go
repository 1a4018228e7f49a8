// Package seed provides the demo dataset: staff, patients across two
// hospitals, five exercise categories and a handful of videos. The same data
// can be loaded into the memory store or written to PostgreSQL.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/postgres"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// namespace keeps demo identifiers stable across runs.
var namespace = uuid.MustParse("6f1f3c0e-5b8a-4d47-9a43-2f4e8c1d7a10")

// ID derives the demo identifier for a logical name such as "user:admin".
func ID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Dataset is a complete set of reference data.
type Dataset struct {
	Users      []*user.User
	Categories []*catalog.Category
	Videos     []*catalog.Video
	Schedules  []*schedule.Schedule
}

// Demo builds the demo dataset stamped with now.
func Demo(now time.Time) Dataset {
	general, riverside := "General Rehab Center", "Riverside Clinic"
	expert := ID("user:expert")

	mk := func(key, email, name string, role user.Role, hospital, assigned *string) *user.User {
		return &user.User{
			ID: ID("user:" + key), Email: email, Name: name, Role: role,
			Hospital: hospital, AssignedExpertID: assigned,
			CreatedAt: now, UpdatedAt: now,
		}
	}

	ds := Dataset{
		Users: []*user.User{
			mk("admin", "admin@rehab.local", "Clinic Admin", user.RoleAdmin, nil, nil),
			mk("expert", "expert@rehab.local", "Dr. Sam Rivera", user.RoleExpert, &general, nil),
			mk("patient1", "patient1@rehab.local", "Alex Kim", user.RolePatient, &general, &expert),
			mk("patient2", "patient2@rehab.local", "Jordan Lee", user.RolePatient, &general, &expert),
			mk("patient3", "patient3@rehab.local", "Morgan Diaz", user.RolePatient, &riverside, nil),
		},
	}

	categories := []struct{ key, name, desc string }{
		{"knee", "Knee", "Strength and mobility for knee recovery"},
		{"shoulder", "Shoulder", "Range of motion and rotator cuff work"},
		{"back", "Lower Back", "Core stability and spine mobility"},
		{"hip", "Hip", "Hip flexor and glute activation"},
		{"balance", "Balance", "Proprioception and fall prevention"},
	}
	for i, c := range categories {
		ds.Categories = append(ds.Categories, &catalog.Category{
			ID: ID("category:" + c.key), Name: c.name, Description: c.desc, DisplayOrder: i + 1,
		})
	}

	videos := []struct {
		key, title, category string
		seconds              int
		difficulty           catalog.Difficulty
	}{
		{"wall-squat", "Wall squat", "knee", 300, catalog.DifficultyBeginner},
		{"step-up", "Step-up", "knee", 420, catalog.DifficultyIntermediate},
		{"pendulum", "Shoulder pendulum", "shoulder", 240, catalog.DifficultyBeginner},
		{"band-rotation", "Band external rotation", "shoulder", 360, catalog.DifficultyIntermediate},
		{"bird-dog", "Bird dog", "back", 300, catalog.DifficultyBeginner},
		{"bridge", "Glute bridge", "hip", 270, catalog.DifficultyBeginner},
		{"single-leg-stand", "Single-leg stand", "balance", 180, catalog.DifficultyAdvanced},
	}
	for _, v := range videos {
		ds.Videos = append(ds.Videos, &catalog.Video{
			ID: ID("video:" + v.key), Title: v.title, DurationSeconds: v.seconds,
			Difficulty: v.difficulty, CategoryID: ID("category:" + v.category),
		})
	}

	// Each patient gets one session a day for the next three days, 09:00 UTC.
	first := timeutil.StartOfDay(now).Add(timeutil.Day + 9*time.Hour)
	for _, u := range ds.Users {
		if !u.IsPatient() {
			continue
		}
		for day := 0; day < 3; day++ {
			video := ds.Videos[(day+len(ds.Schedules))%len(ds.Videos)]
			ds.Schedules = append(ds.Schedules, &schedule.Schedule{
				ID:            ID(fmt.Sprintf("schedule:%s:%d", u.Email, day)),
				UserID:        u.ID,
				VideoID:       video.ID,
				ScheduledDate: first.Add(time.Duration(day) * timeutil.Day),
				CreatedAt:     now.UTC(),
			})
		}
	}
	return ds
}

// LoadMemory puts every record of ds into st.
func LoadMemory(ctx context.Context, st *memory.Store, ds Dataset) error {
	for _, u := range ds.Users {
		st.PutUser(u)
	}
	for _, c := range ds.Categories {
		st.PutCategory(c)
	}
	for _, v := range ds.Videos {
		st.PutVideo(v)
	}
	for _, sc := range ds.Schedules {
		if err := st.Schedules().Insert(ctx, sc); err != nil {
			return fmt.Errorf("seed: schedule %s: %w", sc.ID, err)
		}
	}
	return nil
}

// LoadPostgres upserts ds in one batch. Every user gets the bcrypt hash of
// password. Existing rows are left alone.
func LoadPostgres(ctx context.Context, conn *postgres.Connection, ds Dataset, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	batch := &pgx.Batch{}
	for _, u := range ds.Users {
		batch.Queue(`
			INSERT INTO users (id, email, name, role, hospital, assigned_expert_id, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Email, u.Name, string(u.Role), u.Hospital, u.AssignedExpertID, string(hash), u.CreatedAt, u.UpdatedAt)
	}
	for _, c := range ds.Categories {
		batch.Queue(`
			INSERT INTO categories (id, name, description, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Description, c.DisplayOrder)
	}
	for _, v := range ds.Videos {
		batch.Queue(`
			INSERT INTO videos (id, title, duration_seconds, difficulty, category_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			v.ID, v.Title, v.DurationSeconds, string(v.Difficulty), v.CategoryID)
	}
	for _, sc := range ds.Schedules {
		batch.Queue(`
			INSERT INTO schedules (id, user_id, video_id, scheduled_date, completed, completed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`,
			sc.ID, sc.UserID, sc.VideoID, sc.ScheduledDate, sc.Completed, sc.CompletedAt, sc.CreatedAt)
	}

	tx, err := conn.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}
