package enums

import (
	"fmt"
	"strings"
)

// UserRole is the application role assigned to a user at first login.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleStudent UserRole = "student"
	UserRoleUser    UserRole = "user"
)

var userRoles = map[UserRole]struct{}{
	UserRoleAdmin:   {},
	UserRoleStudent: {},
	UserRoleUser:    {},
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := userRoles[r]
	return ok
}

// ParseUserRole normalizes and validates a role string.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown user role %q", value)
	}
	return role, nil
}
