package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
	"github.com/rehab-hub/rehab-adherence/internal/testfixtures"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
)

type env struct {
	store    *memory.Store
	clock    *testfixtures.Clock
	create   *CreateScheduleHandler
	complete *CompleteScheduleHandler
	remove   *DeleteScheduleHandler
	purge    *PurgeStaleHandler
	record   *RecordProgressHandler
	amend    *AmendProgressHandler
}

func newEnv() *env {
	st := testfixtures.NewStore()
	clock := testfixtures.NewClock(time.Time{})
	log := logger.Nop()
	return &env{
		store:    st,
		clock:    clock,
		create:   NewCreateScheduleHandler(st, clock.Func(), log),
		complete: NewCompleteScheduleHandler(st, clock.Func(), log),
		remove:   NewDeleteScheduleHandler(st, log),
		purge:    NewPurgeStaleHandler(st, clock.Func(), 0, log),
		record:   NewRecordProgressHandler(st, clock.Func(), log),
		amend:    NewAmendProgressHandler(st, log),
	}
}

func (e *env) schedule(t *testing.T, caller access.Caller, at time.Time) *schedule.Schedule {
	t.Helper()
	s, err := e.create.Handle(context.Background(), CreateScheduleCommand{
		Caller:        caller,
		VideoID:       testfixtures.SquatVideoID,
		ScheduledDate: at,
	})
	require.NoError(t, err)
	return s
}

func progressCount(t *testing.T, st *memory.Store, userID string) int {
	t.Helper()
	n, err := st.Progress().Count(context.Background(), progress.Filter{UserID: userID})
	require.NoError(t, err)
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

func TestCreateScheduleOwnership(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	at := e.clock.Now().Add(24 * time.Hour)

	own := e.schedule(t, testfixtures.Patient(), at)
	assert.Equal(t, testfixtures.PatientID, own.UserID)
	assert.False(t, own.Completed)

	// A patient naming someone else still schedules for themselves.
	s, err := e.create.Handle(ctx, CreateScheduleCommand{
		Caller:        testfixtures.Patient(),
		VideoID:       testfixtures.SquatVideoID,
		ScheduledDate: at,
		TargetUserID:  testfixtures.OtherPatientID,
	})
	require.NoError(t, err)
	assert.Equal(t, testfixtures.PatientID, s.UserID)

	s, err = e.create.Handle(ctx, CreateScheduleCommand{
		Caller:        testfixtures.Expert(),
		VideoID:       testfixtures.SquatVideoID,
		ScheduledDate: at,
		TargetUserID:  testfixtures.OtherPatientID,
	})
	require.NoError(t, err)
	assert.Equal(t, testfixtures.OtherPatientID, s.UserID)
}

func TestCreateScheduleRejects(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	at := e.clock.Now()

	tests := []struct {
		name string
		cmd  CreateScheduleCommand
		kind error
	}{
		{"unknown video", CreateScheduleCommand{Caller: testfixtures.Patient(), VideoID: testfixtures.MissingID, ScheduledDate: at}, shared.ErrInvalidReference},
		{"unknown target", CreateScheduleCommand{Caller: testfixtures.Admin(), VideoID: testfixtures.SquatVideoID, ScheduledDate: at, TargetUserID: testfixtures.MissingID}, shared.ErrInvalidReference},
		{"missing date", CreateScheduleCommand{Caller: testfixtures.Patient(), VideoID: testfixtures.SquatVideoID}, shared.ErrInvalidInput},
		{"malformed video", CreateScheduleCommand{Caller: testfixtures.Patient(), VideoID: "abc", ScheduledDate: at}, shared.ErrInvalidInput},
		{"no caller", CreateScheduleCommand{VideoID: testfixtures.SquatVideoID, ScheduledDate: at}, shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.create.Handle(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	n, err := e.store.Schedules().Count(ctx, schedule.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ─────────────────────────────────────────────────────────────────────────────
// Complete
// ─────────────────────────────────────────────────────────────────────────────

func TestCompleteScheduleExactlyOnce(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	s := e.schedule(t, testfixtures.Patient(), e.clock.Now())

	res, err := e.complete.Handle(ctx, CompleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: s.ID})
	require.NoError(t, err)
	assert.True(t, res.Schedule.Completed)
	require.NotNil(t, res.Schedule.CompletedAt)
	assert.True(t, res.Schedule.Consistent())
	assert.Equal(t, s.VideoID, res.Progress.VideoID)
	assert.Equal(t, e.clock.Now(), res.Progress.CompletionDate)

	e.clock.Advance(time.Hour)
	_, err = e.complete.Handle(ctx, CompleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: s.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyCompleted)

	assert.Equal(t, 1, progressCount(t, e.store, testfixtures.PatientID))
	stored, err := e.store.Progress().FindByID(ctx, res.Progress.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Progress.CompletionDate, stored.CompletionDate)

	after, err := e.store.Schedules().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, *res.Schedule.CompletedAt, *after.CompletedAt)
}

func TestCompleteScheduleAccess(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	s := e.schedule(t, testfixtures.Patient(), e.clock.Now())

	for _, caller := range []access.Caller{testfixtures.OtherPatient(), testfixtures.Expert(), testfixtures.Admin()} {
		_, err := e.complete.Handle(ctx, CompleteScheduleCommand{Caller: caller, ScheduleID: s.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden, string(caller.Role))
	}

	_, err := e.complete.Handle(ctx, CompleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: testfixtures.MissingID})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	got, err := e.store.Schedules().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Zero(t, progressCount(t, e.store, testfixtures.PatientID))
}

func TestCompleteScheduleConcurrent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	s := e.schedule(t, testfixtures.Patient(), e.clock.Now())

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.complete.Handle(ctx, CompleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: s.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrAlreadyCompleted)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, progressCount(t, e.store, testfixtures.PatientID))
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete and purge
// ─────────────────────────────────────────────────────────────────────────────

func TestDeleteSchedule(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	s := e.schedule(t, testfixtures.Patient(), e.clock.Now())
	_, err := e.complete.Handle(ctx, CompleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: s.ID})
	require.NoError(t, err)

	err = e.remove.Handle(ctx, DeleteScheduleCommand{Caller: testfixtures.OtherPatient(), ScheduleID: s.ID})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, e.remove.Handle(ctx, DeleteScheduleCommand{Caller: testfixtures.Expert(), ScheduleID: s.ID}))
	_, err = e.store.Schedules().FindByID(ctx, s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, 1, progressCount(t, e.store, testfixtures.PatientID))

	err = e.remove.Handle(ctx, DeleteScheduleCommand{Caller: testfixtures.Patient(), ScheduleID: s.ID})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPurgeStaleOnlyTouchesOneUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	now := e.clock.Now()

	mine := e.schedule(t, testfixtures.Patient(), now.Add(-72*time.Hour))
	pending := e.schedule(t, testfixtures.Patient(), now.Add(-72*time.Hour))
	recent := e.schedule(t, testfixtures.Patient(), now.Add(-time.Hour))
	theirs := e.schedule(t, testfixtures.OtherPatient(), now.Add(-72*time.Hour))

	for _, pair := range []struct {
		caller access.Caller
		id     string
	}{
		{testfixtures.Patient(), mine.ID},
		{testfixtures.Patient(), recent.ID},
		{testfixtures.OtherPatient(), theirs.ID},
	} {
		_, err := e.complete.Handle(ctx, CompleteScheduleCommand{Caller: pair.caller, ScheduleID: pair.id})
		require.NoError(t, err)
	}

	n, err := e.purge.Purge(ctx, testfixtures.PatientID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, err := e.store.Schedules().Query(ctx, schedule.Filter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(left))
	for _, s := range left {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{pending.ID, recent.ID, theirs.ID}, ids)
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress
// ─────────────────────────────────────────────────────────────────────────────

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestRecordProgress(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	entry, err := e.record.Handle(ctx, RecordProgressCommand{
		Caller:  testfixtures.Patient(),
		VideoID: testfixtures.LungeVideoID,
		Rating:  intPtr(4),
		Notes:   strPtr("easy"),
	})
	require.NoError(t, err)
	assert.Equal(t, e.clock.Now(), entry.CompletionDate)
	assert.Equal(t, testfixtures.PatientID, entry.UserID)

	_, err = e.record.Handle(ctx, RecordProgressCommand{Caller: testfixtures.Patient(), VideoID: testfixtures.LungeVideoID, Rating: intPtr(6)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.record.Handle(ctx, RecordProgressCommand{Caller: testfixtures.Patient(), VideoID: testfixtures.MissingID})
	assert.ErrorIs(t, err, shared.ErrInvalidReference)

	assert.Equal(t, 1, progressCount(t, e.store, testfixtures.PatientID))
}

func TestAmendProgressNotesOnly(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	entry, err := e.record.Handle(ctx, RecordProgressCommand{
		Caller:         testfixtures.Patient(),
		VideoID:        testfixtures.LungeVideoID,
		CompletionDate: e.clock.Now().Add(-48 * time.Hour),
		Rating:         intPtr(4),
	})
	require.NoError(t, err)

	amended, err := e.amend.Handle(ctx, AmendProgressCommand{
		Caller:     testfixtures.Patient(),
		ProgressID: entry.ID,
		Amendment:  progress.Amendment{Notes: strPtr("knee felt stable")},
	})
	require.NoError(t, err)

	assert.Equal(t, entry.UserID, amended.UserID)
	assert.Equal(t, entry.VideoID, amended.VideoID)
	assert.Equal(t, entry.CompletionDate, amended.CompletionDate)
	require.NotNil(t, amended.Rating)
	assert.Equal(t, 4, *amended.Rating)
	assert.Equal(t, "knee felt stable", *amended.Notes)

	stored, err := e.store.Progress().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, amended, stored)
}

func TestAmendProgressRejects(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	entry, err := e.record.Handle(ctx, RecordProgressCommand{Caller: testfixtures.Patient(), VideoID: testfixtures.LungeVideoID, Rating: intPtr(2)})
	require.NoError(t, err)

	_, err = e.amend.Handle(ctx, AmendProgressCommand{Caller: testfixtures.Admin(), ProgressID: entry.ID, Amendment: progress.Amendment{Rating: intPtr(5)}})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = e.amend.Handle(ctx, AmendProgressCommand{Caller: testfixtures.Patient(), ProgressID: entry.ID, Amendment: progress.Amendment{Rating: intPtr(0)}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.amend.Handle(ctx, AmendProgressCommand{Caller: testfixtures.Patient(), ProgressID: testfixtures.MissingID, Amendment: progress.Amendment{Notes: strPtr("x")}})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, err := e.store.Progress().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *stored.Rating)

	cleared, err := e.amend.Handle(ctx, AmendProgressCommand{Caller: testfixtures.Patient(), ProgressID: entry.ID, Amendment: progress.Amendment{ClearRating: true}})
	require.NoError(t, err)
	assert.Nil(t, cleared.Rating)
}

func TestCallerRoleMustBeKnown(t *testing.T) {
	e := newEnv()
	_, err := e.record.Handle(context.Background(), RecordProgressCommand{
		Caller:  access.Caller{ID: testfixtures.PatientID, Role: user.Role("guest")},
		VideoID: testfixtures.LungeVideoID,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
