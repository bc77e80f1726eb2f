// Package access holds the role permission matrix of the review workflow.
package access

import "github.com/docflow/review-service/internal/models"

// Capability is something an actor may be allowed to do regardless of ownership.
type Capability string

const (
	// Decide records an approval decision on someone else's document.
	Decide Capability = "decide"
	// OverrideOwnership edits or deletes documents created by others.
	OverrideOwnership Capability = "override_ownership"
	// EditLocked edits a document that is pending or approved.
	EditLocked Capability = "edit_locked"
	// DeleteApproved deletes an approved document.
	DeleteApproved Capability = "delete_approved"
	// ViewOwnDecisions lists the actor's own decisions and stats.
	ViewOwnDecisions Capability = "view_own_decisions"
	// ViewAllStats reads decision stats across all approvers.
	ViewAllStats Capability = "view_all_stats"
)

var matrix = map[models.Role]map[Capability]bool{
	models.RoleUser: {},
	models.RoleApprover: {
		Decide:           true,
		ViewOwnDecisions: true,
	},
	models.RoleAdmin: {
		Decide:            true,
		OverrideOwnership: true,
		EditLocked:        true,
		DeleteApproved:    true,
		ViewOwnDecisions:  true,
		ViewAllStats:      true,
	},
}

// Can reports whether role grants capability.
func Can(role models.Role, c Capability) bool {
	return matrix[role][c]
}

// RolesWith lists the roles granting capability, most privileged last.
func RolesWith(c Capability) []models.Role {
	out := []models.Role{}
	for _, r := range []models.Role{models.RoleUser, models.RoleApprover, models.RoleAdmin} {
		if Can(r, c) {
			out = append(out, r)
		}
	}
	return out
}
