package models

import (
	"strings"
	"time"
)

// Role is the coarse permission group an actor belongs to.
type Role string

const (
	RoleUser     Role = "user"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a claim value onto a Role. Unknown values fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleApprover:
		return RoleApprover
	default:
		return RoleUser
	}
}

// HighestRole picks the most privileged role from a list of claim values
// (Keycloak hands out realm roles as a list).
func HighestRole(values []string) Role {
	best := RoleUser
	for _, v := range values {
		switch ParseRole(v) {
		case RoleAdmin:
			return RoleAdmin
		case RoleApprover:
			best = RoleApprover
		}
	}
	return best
}

// Actor is an authenticated identity as supplied by the auth middleware.
type Actor struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// User is the profile last seen for an actor. Documents and approvals only
// store ids; responses join these profiles back in.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name,omitempty"`
	Email     string    `bson:"email" json:"email,omitempty"`
	Role      Role      `bson:"role" json:"role,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"-"`
	UpdatedAt time.Time `bson:"updatedAt" json:"-"`
}
