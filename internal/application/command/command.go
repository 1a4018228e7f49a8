// Package command contains write operations (CQRS - Commands).
package command

import (
	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
)

func invalid(op, message string) error {
	return shared.NewDomainError("command", op, shared.ErrInvalidInput, message)
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
	if id == "" {
		return "", invalid(op, field+" is required")
	}
	n, err := shared.NormalizeID(id)
	if err != nil {
		return "", shared.WrapError("command", op, shared.ErrInvalidInput, field+" is malformed", err)
	}
	return n, nil
}
