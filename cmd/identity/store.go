package identity

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// CreateUserInput describes a registration request. PasswordDigest is the
// already-hashed credential; this package never sees plaintext passwords.
type CreateUserInput struct {
	Username        string
	Email           string
	PasswordDigest  string
	PasswordVersion PasswordVersion
	DateOfBirth     time.Time
	Status          Status
	Now             time.Time
}

// Store is the credential persistence boundary consumed by the session
// service (read side) and the registration endpoint (write side).
//
// Implementations must be safe for concurrent use.
type Store interface {
	// GetUserByUsername looks a user up by username. The lookup is
	// case-insensitive: the username is normalized before querying.
	// Returns ErrNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (User, error)

	// CreateUser inserts a new user with a fresh ID. A duplicate username or
	// email yields a ConflictError.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
}

// NewUserID returns a new ULID string (26 chars, lexicographically sortable).
func NewUserID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
