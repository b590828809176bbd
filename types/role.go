package types

import "fmt"

// Role is the authorization level of a user within the platform.
type Role string

const (
	// RoleSuperAdmin is the platform operator. Sees every organization.
	RoleSuperAdmin Role = "super_admin"

	// RoleOrgAdmin administers a single organization and its users.
	RoleOrgAdmin Role = "org_admin"

	// RoleAuthorityUser can work alerts and events inside its organization.
	RoleAuthorityUser Role = "authority_user"

	// RoleObserver has read-only access inside its organization.
	RoleObserver Role = "observer"
)

// AllRoles lists every valid role, ordered by privilege.
var AllRoles = []Role{RoleSuperAdmin, RoleOrgAdmin, RoleAuthorityUser, RoleObserver}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	for _, known := range AllRoles {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// In reports whether the role is a member of the given allow-list.
func (r Role) In(allowed []Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}

// AssignableBy lists the roles an editor with the given role may grant to
// other users. Nobody grants super_admin through the API; that role exists
// only via the bootstrap registration.
func AssignableBy(editor Role) []Role {
	switch editor {
	case RoleSuperAdmin:
		return []Role{RoleOrgAdmin, RoleAuthorityUser, RoleObserver}
	case RoleOrgAdmin:
		return []Role{RoleAuthorityUser, RoleObserver}
	default:
		return nil
	}
}
