package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

var now = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(nil))
	assert.NoError(t, ValidateRating(intPtr(1)))
	assert.NoError(t, ValidateRating(intPtr(5)))
	assert.ErrorIs(t, ValidateRating(intPtr(0)), shared.ErrInvalidInput)
	assert.ErrorIs(t, ValidateRating(intPtr(6)), shared.ErrInvalidInput)
}

func TestNewDefaultsCompletionDate(t *testing.T) {
	e, err := New("u1", "v1", time.Time{}, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, e.CompletionDate)
	assert.NotEmpty(t, e.ID)

	past := now.Add(-48 * time.Hour)
	e, err = New("u1", "v1", past, intPtr(4), nil, now)
	require.NoError(t, err)
	assert.Equal(t, past, e.CompletionDate)
}

func TestNewRejectsInvalidRating(t *testing.T) {
	_, err := New("u1", "v1", now, intPtr(9), nil, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAmendChangesOnlyProvidedFields(t *testing.T) {
	e, err := New("u1", "v1", now, intPtr(3), strPtr("sore"), now)
	require.NoError(t, err)

	require.NoError(t, e.Amend(Amendment{Notes: strPtr("better")}))
	assert.Equal(t, "better", *e.Notes)
	assert.Equal(t, 3, *e.Rating)

	require.NoError(t, e.Amend(Amendment{Rating: intPtr(5)}))
	assert.Equal(t, 5, *e.Rating)
	assert.Equal(t, "better", *e.Notes)

	require.NoError(t, e.Amend(Amendment{ClearRating: true}))
	assert.Nil(t, e.Rating)

	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "v1", e.VideoID)
	assert.Equal(t, now, e.CompletionDate)
}

func TestAmendValidatesBeforeChanging(t *testing.T) {
	e, err := New("u1", "v1", now, intPtr(3), strPtr("sore"), now)
	require.NoError(t, err)

	err = e.Amend(Amendment{Notes: strPtr("x"), Rating: intPtr(0)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, "sore", *e.Notes)
	assert.Equal(t, 3, *e.Rating)

	err = e.Amend(Amendment{Rating: intPtr(2), ClearRating: true})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
