package model

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the identity role carried in the session credential.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is a directory entry, owned by the identity side and read here.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	FiliereID    *uuid.UUID `json:"filiere,omitempty"`
	IsActive     bool       `json:"isActive"`
}

// DisplayName is "first last", falling back to the username when both are blank.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
