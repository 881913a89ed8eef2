// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a row of the users table.
// ID, CreatedAt and UpdatedAt are assigned by the database on insert.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserColumns lists the users columns in the order they are scanned.
var UserColumns = []string{"id", "email", "created_at", "updated_at"}

// ScanTargets returns pointers to the fields in UserColumns order.
func (u *User) ScanTargets() []any {
	return []any{&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt}
}
