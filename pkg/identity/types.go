// Package identity adapts external identity directories into the bounded,
// filtered principal lists the planner consumes. Sources are dependency-
// injected so the engine and its tests never require a live directory.
package identity

import "context"

// DefaultDepartment is assigned to users whose directory record carries no
// department. Grouping by department drives shared-drive derivation, so the
// fallback must be deterministic.
const DefaultDepartment = "General"

// User is a directory principal mapped for provisioning.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
	JobTitle    string `json:"job_title"`
}

// Group is a mail-enabled directory group.
type Group struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Source lists principals from an external directory. Implementations
// handle the directory's own paging; callers see bounded slices.
type Source interface {
	// ListUsers returns at most max users matching the directory filter.
	ListUsers(ctx context.Context, filter string, max int) ([]User, error)

	// ListGroups returns at most max mail-enabled groups.
	ListGroups(ctx context.Context, filter string, max int) ([]Group, error)

	// ListGroupMembers returns member email addresses for a group.
	ListGroupMembers(ctx context.Context, groupID string) ([]string, error)

	// ManagerEmail returns a user's manager email, or "" when the user
	// has no resolvable manager.
	ManagerEmail(ctx context.Context, userID string) (string, error)
}

// Snapshot is a point-in-time export of a directory, keyed for replay by
// tests and offline planning.
type Snapshot struct {
	Users       []User              `json:"users"`
	Groups      []Group             `json:"groups"`
	Memberships map[string][]string `json:"memberships"`
	Managers    map[string]string   `json:"managers,omitempty"`
}
