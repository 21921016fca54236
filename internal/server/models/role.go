package models

// Role is a named permission group assignable to users.
type Role struct {
	ID          int64
	Code        string
	Name        string
	Type        string
	Description string
}

// DefaultRoleCode is assigned to every user at sign-up.
const DefaultRoleCode = "USER"

// AdminRoleCode guards the administrative endpoints.
const AdminRoleCode = "ADMIN"
