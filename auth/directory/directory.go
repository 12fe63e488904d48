// Package directory provides a read-only view of the users, teams and
// namespaces known to the registry portal.
//
// Authenticators and authorizers only ever read from a Directory;
// account and namespace management happens elsewhere.
package directory

import (
	"context"
	"fmt"
)

// Role is a member's level of access within a team.
// Roles form a total order: every right of a lower role is included in the higher ones.
type Role int8

const (
	RoleViewer Role = iota
	RoleContributor
	RoleOwner
)

// CanPush reports whether the role grants write access to the team's namespaces.
func (r Role) CanPush() bool {
	return r >= RoleContributor
}

// CanDelete reports whether the role grants destructive access to the team's namespaces.
func (r Role) CanDelete() bool {
	return r >= RoleOwner
}

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleContributor:
		return "contributor"
	case RoleOwner:
		return "owner"
	}

	return fmt.Sprintf("role(%d)", int8(r))
}

// ParseRole parses a role name.
func ParseRole(role string) (Role, error) {
	switch role {
	case "viewer":
		return RoleViewer, nil
	case "contributor":
		return RoleContributor, nil
	case "owner":
		return RoleOwner, nil
	}

	return RoleViewer, fmt.Errorf("unknown role: %q", role)
}

// Visibility controls who can pull from a namespace.
type Visibility int8

const (
	// VisibilityPrivate namespaces require a team membership for any action, including pull.
	VisibilityPrivate Visibility = iota

	// VisibilityProtected namespaces behave like private ones for now,
	// but are reserved for logged-in-only pull access.
	VisibilityProtected

	// VisibilityPublic namespaces can be pulled by anyone, including anonymous clients.
	VisibilityPublic
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	}

	return fmt.Sprintf("visibility(%d)", int8(v))
}

// ParseVisibility parses a visibility name.
func ParseVisibility(visibility string) (Visibility, error) {
	switch visibility {
	case "private":
		return VisibilityPrivate, nil
	case "protected":
		return VisibilityProtected, nil
	case "public":
		return VisibilityPublic, nil
	}

	return VisibilityPrivate, fmt.Errorf("unknown visibility: %q", visibility)
}

// ApplicationToken is a secondary credential a user can present instead of a password
// (eg. for CI systems), identified separately so it can be revoked on its own.
type ApplicationToken struct {
	ID         string
	SecretHash string
}

// User is an account known to the directory.
type User struct {
	ID           string
	Username     string
	PasswordHash string

	Enabled bool
	Admin   bool

	ApplicationTokens []ApplicationToken
}

// Team groups users; a team may own any number of namespaces.
type Team struct {
	ID   string
	Name string
}

// Membership links a user to a team with a role.
type Membership struct {
	TeamID string
	UserID string
	Role   Role
}

// Namespace is a pull/push scoping unit: repositories named <namespace>/<repo>
// share the namespace's visibility and owning team.
type Namespace struct {
	Name string

	// TeamID is empty when the namespace has no owning team.
	TeamID string

	Visibility Visibility
}

// Principal is a fully resolved user: the account record plus every team membership.
type Principal struct {
	User        User
	Memberships []Membership
}

// RoleIn returns the principal's maximal role within a team.
// A user belonging to a team through multiple memberships gets the most permissive one.
func (p Principal) RoleIn(teamID string) (Role, bool) {
	var role Role
	var found bool

	for _, membership := range p.Memberships {
		if membership.TeamID != teamID {
			continue
		}

		if !found || membership.Role > role {
			role = membership.Role
		}

		found = true
	}

	return role, found
}

// Directory is the read-only lookup interface backing authentication and authorization.
//
// Lookups for missing entries return ok == false and a nil error;
// errors are reserved for the directory itself being unavailable.
type Directory interface {
	FindUser(ctx context.Context, username string) (User, bool, error)
	FindNamespace(ctx context.Context, name string) (Namespace, bool, error)
	MembershipsOf(ctx context.Context, userID string) ([]Membership, error)
}
