package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when an insert hits the unique
	// username constraint.
	ErrUsernameTaken = errors.New("username taken")
	// ErrEmailTaken is returned when an insert hits the unique email
	// constraint.
	ErrEmailTaken = errors.New("email taken")
)

// User represents a registered user.
type User struct {
	ID           string // opaque UUID
	Username     string
	Email        string
	PasswordHash string
	AvatarImage  string // base64-encoded image payload
	AvatarSet    bool
	CreatedAt    time.Time
}

// Message represents a persisted chat message. Immutable after insert;
// there is no server-side edit or delete.
type Message struct {
	ID        int64
	FromID    string
	ToID      string
	Body      string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password and returns it.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetAvatar stores the avatar image for a user and marks it set.
	SetAvatar(ctx context.Context, id, image string) (*User, error)

	// ListContacts returns all users except the given one.
	ListContacts(ctx context.Context, excludeID string) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation returns the ordered history between two users,
	// regardless of direction.
	ListConversation(ctx context.Context, userA, userB string) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
