// Package access holds the single capability rule used by every handler.
package access

import (
	"fmt"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
)

// Action is something a caller wants to do to a resource.
type Action string

const (
	ScheduleComplete  Action = "schedule.complete"
	ScheduleRead      Action = "schedule.read"
	ScheduleDelete    Action = "schedule.delete"
	ScheduleCreateFor Action = "schedule.create_for"
	ProgressAmend     Action = "progress.amend"
	ProgressReadAll   Action = "progress.read_all"
	AnalyticsRead     Action = "analytics.read"
	HospitalRead      Action = "hospital.read"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   string
	Role user.Role
}

type rule struct {
	owner bool
	roles []user.Role
}

var policy = map[Action]rule{
	ScheduleComplete:  {owner: true},
	ScheduleRead:      {owner: true, roles: []user.Role{user.RoleExpert, user.RoleAdmin}},
	ScheduleDelete:    {owner: true, roles: []user.Role{user.RoleExpert, user.RoleAdmin}},
	ScheduleCreateFor: {owner: true, roles: []user.Role{user.RoleExpert, user.RoleAdmin}},
	ProgressAmend:     {owner: true},
	ProgressReadAll:   {roles: []user.Role{user.RoleExpert, user.RoleAdmin}},
	AnalyticsRead:     {roles: []user.Role{user.RoleExpert, user.RoleAdmin}},
	HospitalRead:      {roles: []user.Role{user.RoleAdmin}},
}

// Check returns nil when caller may perform action on a resource owned by
// ownerID. Pass an empty ownerID for actions without an owner.
func Check(action Action, caller Caller, ownerID string) error {
	r, ok := policy[action]
	if !ok {
		return shared.NewDomainError("access", "Check", shared.ErrForbidden, fmt.Sprintf("unknown action %q", action))
	}
	if r.owner && caller.ID != "" && caller.ID == ownerID {
		return nil
	}
	for _, role := range r.roles {
		if caller.Role == role {
			return nil
		}
	}
	return shared.ErrAccessDenied
}
