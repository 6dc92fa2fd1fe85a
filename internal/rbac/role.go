// Package rbac holds the portal's closed role set and the single
// authorization policy every route gate consults.
package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole indicates a role string outside the closed set.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Role is a named permission tier. The zero value is not a valid role.
type Role uint8

const (
	// RoleEmployee is the lowest tier; every authenticated visitor holds at
	// least this.
	RoleEmployee Role = iota + 1
	// RoleHRManager covers people-management screens.
	RoleHRManager
	// RoleAdmin is the highest tier.
	RoleAdmin
)

// Wire values as persisted by the login endpoint and the session blob.
const (
	employeeName  = "Employee"
	hrManagerName = "HR Manager"
	adminName     = "Admin"
)

// rank is the total order Employee < HR Manager < Admin.
var rank = map[Role]int{
	RoleEmployee:  1,
	RoleHRManager: 2,
	RoleAdmin:     3,
}

// Roles lists every valid role in ascending order.
func Roles() []Role {
	return []Role{RoleEmployee, RoleHRManager, RoleAdmin}
}

// Valid reports whether r is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleEmployee:
		return employeeName
	case RoleHRManager:
		return hrManagerName
	case RoleAdmin:
		return adminName
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Parse maps a wire string onto a Role. Matching is case-insensitive and
// ignores surrounding whitespace; anything outside the closed set is an
// ErrUnknownRole.
func Parse(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employee":
		return RoleEmployee, nil
	case "hr manager", "hrmanager", "hr_manager":
		return RoleHRManager, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// MarshalText implements encoding.TextMarshaler so sessions serialize roles
// by wire name rather than numeric tag.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
