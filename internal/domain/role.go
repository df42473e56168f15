package domain

import (
	"fmt"
	"strings"
)

// Role is an access role granted to a user.
type Role string

// Known roles.
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole converts a role name into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Roles is a set of roles held by a single user.
type Roles []Role

// Has reports whether r contains role.
func (r Roles) Has(role Role) bool {
	for _, candidate := range r {
		if candidate == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether r contains RoleAdmin.
func (r Roles) IsAdmin() bool {
	return r.Has(RoleAdmin)
}

// Strings returns the role names in order.
func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

// ParseRoles converts role names into Roles, skipping blanks and unknown names
// and dropping duplicates.
func ParseRoles(names []string) Roles {
	out := make(Roles, 0, len(names))
	for _, name := range names {
		role, err := ParseRole(name)
		if err != nil || out.Has(role) {
			continue
		}
		out = append(out, role)
	}
	return out
}
