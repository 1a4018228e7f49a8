// Package query contains read operations (CQRS - Queries). Apart from the
// stale-schedule purge that precedes a schedule listing, nothing here writes.
package query

import (
	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

// Limits bounds list sizes and report windows.
type Limits struct {
	PageSize        int
	MaxPageSize     int
	AdminPageSize   int
	TopVideos       int
	EngagementRows  int
	ActiveUsersDays int
	EngagementDays  int
	MaxWindowDays   int
}

// DefaultLimits returns the limits the HTTP API documents.
func DefaultLimits() Limits {
	return Limits{
		PageSize:        20,
		MaxPageSize:     100,
		AdminPageSize:   100,
		TopVideos:       10,
		EngagementRows:  20,
		ActiveUsersDays: 7,
		EngagementDays:  30,
		MaxWindowDays:   365,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.PageSize <= 0 {
		l.PageSize = d.PageSize
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = d.MaxPageSize
	}
	if l.AdminPageSize <= 0 {
		l.AdminPageSize = d.AdminPageSize
	}
	if l.TopVideos <= 0 {
		l.TopVideos = d.TopVideos
	}
	if l.EngagementRows <= 0 {
		l.EngagementRows = d.EngagementRows
	}
	if l.ActiveUsersDays <= 0 {
		l.ActiveUsersDays = d.ActiveUsersDays
	}
	if l.EngagementDays <= 0 {
		l.EngagementDays = d.EngagementDays
	}
	if l.MaxWindowDays <= 0 {
		l.MaxWindowDays = d.MaxWindowDays
	}
	return l
}

// window applies the default to 0 and rejects negatives or oversized windows.
func (l Limits) window(op string, days, def int) (int, error) {
	switch {
	case days == 0:
		return def, nil
	case days < 0:
		return 0, invalid(op, "days must be positive")
	case days > l.MaxWindowDays:
		return 0, invalid(op, "days exceeds the maximum window")
	}
	return days, nil
}

func invalid(op, message string) error {
	return shared.NewDomainError("query", op, shared.ErrInvalidInput, message)
}

func validateCaller(op string, c access.Caller) error {
	if c.ID == "" {
		return invalid(op, "caller is required")
	}
	if !c.Role.IsValid() {
		return invalid(op, "caller role is invalid")
	}
	return nil
}

func normalizeID(op, field, id string) (string, error) {
	n, err := shared.NormalizeID(id)
	if err != nil {
		return "", shared.WrapError("query", op, shared.ErrInvalidInput, field+" is malformed", err)
	}
	return n, nil
}
