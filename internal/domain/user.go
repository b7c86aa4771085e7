package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Department   string      `json:"department,omitempty"`
	Active       bool        `json:"active"`
	ProjectIDs   []uuid.UUID `json:"project_ids"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasProject(id uuid.UUID) bool {
	for _, p := range u.ProjectIDs {
		if p == id {
			return true
		}
	}
	return false
}

type CreateUserRequest struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       Role        `json:"role"`
	Department string      `json:"department"`
	ProjectIDs []uuid.UUID `json:"project_ids"`
}

type UpdateUserRequest struct {
	Name       *string      `json:"name,omitempty"`
	Role       *Role        `json:"role,omitempty"`
	Department *string      `json:"department,omitempty"`
	Active     *bool        `json:"active,omitempty"`
	ProjectIDs *[]uuid.UUID `json:"project_ids,omitempty"`
}
