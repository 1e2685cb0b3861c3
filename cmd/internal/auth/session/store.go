package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the session persistence boundary.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new session row. A duplicate ID yields
	// ErrAlreadyExists.
	Create(ctx context.Context, s Session) error

	// GetByID loads a session row by ID. Returns ErrSessionNotFound when no
	// such row exists.
	GetByID(ctx context.Context, id string) (Session, error)

	// GetByUser returns all session rows for a user, newest first. A user
	// with no sessions yields an empty slice, not an error.
	GetByUser(ctx context.Context, userID string) ([]Session, error)

	// UpdateRefreshed records a refresh: sets refreshed_at and advances
	// expires_at and updated_at. Returns ErrSessionNotFound when no row
	// matches.
	UpdateRefreshed(ctx context.Context, id string, refreshedAt, expiresAt time.Time) error

	// SetStatus transitions a session's status (used to blacklist).
	// Returns ErrSessionNotFound when no row matches.
	SetStatus(ctx context.Context, id string, status Status, now time.Time) error

	// DeleteExpiredActive removes active sessions for a user whose expiry
	// predates the cutoff. Blacklisted rows are kept as an audit trail.
	// Returns the number of rows removed.
	DeleteExpiredActive(ctx context.Context, userID string, before time.Time) (int64, error)
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.New().String()
}
