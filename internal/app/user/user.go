/*
Package user contains the identity model and the auth/directory service.

It defines the stored User record, the sanitized Public view handed to clients,
the Store contract implemented by the Postgres and in-memory backends, and the
Service that registers, authenticates and tracks presence of users.
*/
package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned by a Store when the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// User is the stored identity record. It is never serialized to clients; use Public.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	Online       bool
	LastSeen     time.Time
	CreatedAt    time.Time
	Contacts     []string
}

// Public is the sanitized view of a User: no password hash, email or contacts.
type Public struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"lastSeen"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Public returns the sanitized view of u.
func (u *User) Public() Public {
	return Public{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Online:      u.Online,
		LastSeen:    u.LastSeen,
		CreatedAt:   u.CreatedAt,
	}
}

// Store persists users. Username uniqueness is enforced by the implementation.
type Store interface {
	// Create inserts u, returning ErrDuplicateUsername when the username exists.
	Create(ctx context.Context, u *User) error

	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*User, error)

	// SearchByUsername returns users whose username contains query, ignoring case.
	SearchByUsername(ctx context.Context, query string) ([]*User, error)

	// SetOnline updates the online flag and last-seen time and returns the updated user.
	SetOnline(ctx context.Context, id string, online bool, at time.Time) (*User, error)
}
