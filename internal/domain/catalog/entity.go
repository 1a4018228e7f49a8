// Package catalog holds exercise videos and their categories. Both are
// read-only inputs to the adherence engine.
package catalog

import "context"

// Difficulty of an exercise video.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Category groups videos.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// Video is an exercise descriptor.
type Video struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationSeconds int        `json:"duration_seconds"`
	Difficulty      Difficulty `json:"difficulty"`
	CategoryID      string     `json:"category_id"`
}

// Repository defines read access to the catalog.
type Repository interface {
	// FindVideo returns shared.ErrVideoNotFound when absent.
	FindVideo(ctx context.Context, id string) (*Video, error)

	// FindCategory returns shared.ErrCategoryNotFound when absent.
	FindCategory(ctx context.Context, id string) (*Category, error)

	ListVideos(ctx context.Context) ([]*Video, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}
