// Package store declares the entity store the engine runs against. Handlers
// receive a Store explicitly; postgres and memory both implement it.
package store

import (
	"context"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

// Store groups the repositories.
type Store interface {
	Users() user.Repository
	Catalog() catalog.Repository
	Schedules() schedule.Repository
	Progress() progress.Repository

	// Atomic runs fn against a transactional view of the store. Either every
	// write fn makes is kept or none is. Nested calls join the outer
	// transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
