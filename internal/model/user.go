// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Name is optional and stored as NULL when absent, so it is a pointer.
// PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Name         *string   `json:"name"       db:"name"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PublicUser is the user shape returned by the auth endpoints.
type PublicUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Public strips everything but the identity attributes.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
