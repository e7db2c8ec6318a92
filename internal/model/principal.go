package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleAnalyst Role = "ANALYST"
	RoleViewer  Role = "VIEWER"
)

type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) CanRead() bool {
	switch p.Role {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	default:
		return false
	}
}

// CanUseAI reports whether the principal may send aggregated data to the AI collaborator.
func (p Principal) CanUseAI() bool {
	return p.Role == RoleAdmin || p.Role == RoleAnalyst
}
