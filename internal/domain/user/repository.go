package user

import (
	"context"
)

// Filter narrows user listings. Zero values mean "any".
type Filter struct {
	Role Role
	IDs  []string
}

// Repository defines read access to users.
type Repository interface {
	// FindByID returns shared.ErrUserNotFound when the user does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// List returns users matching the filter ordered by id.
	List(ctx context.Context, filter Filter) ([]*User, error)

	// CountByRole returns the number of users per role.
	CountByRole(ctx context.Context) (map[Role]int, error)

	// GroupPatientsByHospital counts patients per declared hospital,
	// skipping patients without one.
	GroupPatientsByHospital(ctx context.Context) ([]HospitalCount, error)
}

// Cache is a read-through cache in front of FindByID.
type Cache interface {
	// Get returns shared.ErrUserNotFound on a miss.
	Get(ctx context.Context, id string) (*User, error)
	Set(ctx context.Context, u *User) error
	Invalidate(ctx context.Context, id string) error
}
