package testfixtures

import (
	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
)

// Fixed identifiers of the seeded world.
const (
	PatientID      = "11111111-1111-4111-8111-111111111111"
	OtherPatientID = "22222222-2222-4222-8222-222222222222"
	ExpertID       = "33333333-3333-4333-8333-333333333333"
	AdminID        = "44444444-4444-4444-8444-444444444444"
	LonePatientID  = "55555555-5555-4555-8555-555555555555"

	KneeCategoryID     = "aaaaaaaa-0000-4000-8000-000000000001"
	ShoulderCategoryID = "aaaaaaaa-0000-4000-8000-000000000002"

	SquatVideoID  = "bbbbbbbb-0000-4000-8000-000000000001"
	LungeVideoID  = "bbbbbbbb-0000-4000-8000-000000000002"
	RaiseVideoID  = "bbbbbbbb-0000-4000-8000-000000000003"
	MissingID     = "99999999-9999-4999-8999-999999999999"
	GeneralCenter = "General Rehab Center"
	NorthClinic   = "North Clinic"
)

// Patient is the primary patient caller.
func Patient() access.Caller { return access.Caller{ID: PatientID, Role: user.RolePatient} }

// OtherPatient is a second patient caller.
func OtherPatient() access.Caller { return access.Caller{ID: OtherPatientID, Role: user.RolePatient} }

// Expert is the expert caller.
func Expert() access.Caller { return access.Caller{ID: ExpertID, Role: user.RoleExpert} }

// Admin is the admin caller.
func Admin() access.Caller { return access.Caller{ID: AdminID, Role: user.RoleAdmin} }

// NewStore returns a memory store with five users, two categories and three
// videos.
func NewStore() *memory.Store {
	s := memory.New()
	now := ReferenceTime()
	general, north := GeneralCenter, NorthClinic
	expert := ExpertID

	s.PutUser(&user.User{ID: PatientID, Email: "pat@example.com", Name: "Pat", Role: user.RolePatient, Hospital: &general, AssignedExpertID: &expert, CreatedAt: now, UpdatedAt: now})
	s.PutUser(&user.User{ID: OtherPatientID, Email: "olga@example.com", Name: "Olga", Role: user.RolePatient, Hospital: &north, CreatedAt: now, UpdatedAt: now})
	s.PutUser(&user.User{ID: LonePatientID, Email: "lee@example.com", Name: "Lee", Role: user.RolePatient, CreatedAt: now, UpdatedAt: now})
	s.PutUser(&user.User{ID: ExpertID, Email: "dr@example.com", Name: "Dr. Ada", Role: user.RoleExpert, Hospital: &general, CreatedAt: now, UpdatedAt: now})
	s.PutUser(&user.User{ID: AdminID, Email: "admin@example.com", Name: "Admin", Role: user.RoleAdmin, CreatedAt: now, UpdatedAt: now})

	s.PutCategory(&catalog.Category{ID: KneeCategoryID, Name: "Knee", DisplayOrder: 1})
	s.PutCategory(&catalog.Category{ID: ShoulderCategoryID, Name: "Shoulder", DisplayOrder: 2})

	s.PutVideo(&catalog.Video{ID: SquatVideoID, Title: "Wall squat", DurationSeconds: 300, Difficulty: catalog.DifficultyBeginner, CategoryID: KneeCategoryID})
	s.PutVideo(&catalog.Video{ID: LungeVideoID, Title: "Lunge", DurationSeconds: 420, Difficulty: catalog.DifficultyIntermediate, CategoryID: KneeCategoryID})
	s.PutVideo(&catalog.Video{ID: RaiseVideoID, Title: "Arm raise", DurationSeconds: 240, Difficulty: catalog.DifficultyBeginner, CategoryID: ShoulderCategoryID})
	return s
}
