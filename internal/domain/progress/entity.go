// Package progress models the append-only history of completed exercises.
package progress

import (
	"time"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Entry is one completed exercise. UserID, VideoID and CompletionDate never
// change after insert.
type Entry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	VideoID        string    `json:"video_id"`
	CompletionDate time.Time `json:"completion_date"`
	Rating         *int      `json:"rating,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidateRating accepts nil or a value in [MinRating, MaxRating].
func ValidateRating(r *int) error {
	if r == nil {
		return nil
	}
	if *r < MinRating || *r > MaxRating {
		return shared.ErrInvalidRating
	}
	return nil
}

// New builds an entry. A zero completionDate means now.
func New(userID, videoID string, completionDate time.Time, rating *int, notes *string, now time.Time) (*Entry, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if completionDate.IsZero() {
		completionDate = now
	}
	return &Entry{
		ID:             shared.NewID(),
		UserID:         userID,
		VideoID:        videoID,
		CompletionDate: completionDate.UTC(),
		Rating:         rating,
		Notes:          notes,
		CreatedAt:      now.UTC(),
	}, nil
}

// Amendment lists the mutable fields a caller wants to change.
// Nil pointers leave the field alone; ClearRating removes the rating.
type Amendment struct {
	Notes       *string
	Rating      *int
	ClearRating bool
}

// Empty reports whether the amendment changes nothing.
func (a Amendment) Empty() bool {
	return a.Notes == nil && a.Rating == nil && !a.ClearRating
}

// Amend applies a to the entry. Validation happens before any field changes.
func (e *Entry) Amend(a Amendment) error {
	if a.ClearRating && a.Rating != nil {
		return shared.NewDomainError("progress", "Amend", shared.ErrInvalidInput, "rating cannot be set and cleared at once")
	}
	if err := ValidateRating(a.Rating); err != nil {
		return err
	}
	if a.Notes != nil {
		n := *a.Notes
		e.Notes = &n
	}
	switch {
	case a.ClearRating:
		e.Rating = nil
	case a.Rating != nil:
		r := *a.Rating
		e.Rating = &r
	}
	return nil
}
