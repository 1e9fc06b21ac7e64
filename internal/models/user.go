package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleProfessor   UserRole = "PROFESSOR"
	RoleStudent     UserRole = "STUDENT"
)

// User is an account. Professors carry an external Code that timetable
// documents use to reference them; ID is the internal identity key.
type User struct {
	ID        string    `db:"id" json:"id"`
	Code      *string   `db:"code" json:"code,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
