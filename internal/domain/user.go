package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried by user accesses and session records.
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
	RoleGuest  = "Guest"
)

// User is the identity entity. Soft delete anonymizes the personal fields
// and stamps DeletedAt; the row itself is never removed.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Birthdate    *time.Time `json:"birthdate,omitempty" db:"birthdate"`
	AvatarURL    string     `json:"avatar_url" db:"avatar_url"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

// UserAccess is the login credential for a User, kept separate from the
// identity. PasswordHash is a bcrypt derived key (per-password salt is
// embedded in the hash).
type UserAccess struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Login        string    `json:"login" db:"login"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
