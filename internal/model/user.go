package model

import "time"

// Roles stored in users.role and in the "role" claim of access tokens.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User represents a login account. Teacher accounts link to their Teacher
// row through TeacherID; admin accounts usually have none.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TeacherID    *int64    `json:"teacherId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
