package progress

import (
	"context"
	"time"
)

// Filter selects progress entries. Zero fields are ignored.
type Filter struct {
	UserID  string
	VideoID string

	// From and To bound CompletionDate inclusively.
	From *time.Time
	To   *time.Time

	// Limit and Offset page the result; Limit 0 means unbounded.
	Limit  int
	Offset int
}

// Repository is the progress part of the entity store.
type Repository interface {
	// FindByID returns shared.ErrProgressNotFound when absent.
	FindByID(ctx context.Context, id string) (*Entry, error)

	// Query returns matching entries ordered by CompletionDate descending.
	Query(ctx context.Context, filter Filter) ([]*Entry, error)

	// Count ignores Limit and Offset.
	Count(ctx context.Context, filter Filter) (int, error)

	// CountByVideo returns the number of entries per video id.
	CountByVideo(ctx context.Context) (map[string]int, error)

	// CountByUser returns the number of entries per user id. An empty
	// userIDs counts every user.
	CountByUser(ctx context.Context, userIDs []string) (map[string]int, error)

	Insert(ctx context.Context, e *Entry) error

	// Update persists Notes and Rating only.
	Update(ctx context.Context, e *Entry) error
}
