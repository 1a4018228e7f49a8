package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
)

func TestIDIsStable(t *testing.T) {
	assert.Equal(t, ID("user:admin"), ID("user:admin"))
	assert.NotEqual(t, ID("user:admin"), ID("user:expert"))
}

func TestDemoReferencesResolve(t *testing.T) {
	ds := Demo(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	assert.Len(t, ds.Categories, 5)
	categories := map[string]bool{}
	for _, c := range ds.Categories {
		categories[c.ID] = true
	}
	for _, v := range ds.Videos {
		assert.True(t, categories[v.CategoryID], v.Title)
	}

	users := map[string]*user.User{}
	for _, u := range ds.Users {
		users[u.ID] = u
	}
	for _, u := range ds.Users {
		if u.AssignedExpertID != nil {
			expert, ok := users[*u.AssignedExpertID]
			require.True(t, ok, u.Name)
			assert.Equal(t, user.RoleExpert, expert.Role)
		}
	}
}

func TestLoadMemory(t *testing.T) {
	st := memory.New()
	ds := Demo(time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC))
	ctx := context.Background()
	require.NoError(t, LoadMemory(ctx, st, ds))
	counts, err := st.Users().CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[user.RolePatient])
	assert.Equal(t, 1, counts[user.RoleAdmin])

	videos, err := st.Catalog().ListVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, len(ds.Videos))

	_, err = st.Users().FindByID(ctx, ID("user:patient3"))
	assert.NoError(t, err)

	patient := ID("user:patient1")
	schedules, err := st.Schedules().Query(ctx, schedule.Filter{UserID: patient})
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	assert.Equal(t, time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC), schedules[0].ScheduledDate)
	assert.False(t, schedules[0].Completed)
}
