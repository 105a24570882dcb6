package domain

import "time"

// Role is the platform-wide user role.
type Role string

// User role constants, as returned by the core API.
const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleInvestor   Role = "INVESTOR"
)

// IsAdmin reports whether the role may hold an authenticated dashboard session.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is an admin or investor account on the Satoru platform. Field names
// mirror the core API wire format (camelCase).
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanDeleteProjects reports whether the user may delete projects.
// Deletion is reserved for super admins.
func (u *User) CanDeleteProjects() bool {
	return u.Role == RoleSuperAdmin
}
