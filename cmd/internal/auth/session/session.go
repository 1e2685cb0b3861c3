package session

import "time"

// Status is the lifecycle state of a session row.
type Status int16

const (
	// StatusActive marks a session that may be refreshed.
	StatusActive Status = 1

	// StatusBlacklisted marks a revoked session. Blacklisting is terminal:
	// a blacklisted session is never reactivated.
	StatusBlacklisted Status = 2
)

// String returns a stable label for logs.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusBlacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

// Session is one authenticated device context for a user. A user may hold
// any number of concurrent sessions.
type Session struct {
	// ID is a random UUID string minted at login.
	ID string

	// UserID references the owning user.
	UserID string

	// Platform and SubPlatform describe the client that opened the session
	// (e.g. "web"/"firefox", "mobile"/"android"). Free-form, informational.
	Platform    string
	SubPlatform string

	// RefreshedAt is the time of the most recent refresh, or the creation
	// time if the session has never been refreshed.
	RefreshedAt time.Time

	// ExpiresAt is the wall-clock expiry. It advances on every refresh.
	ExpiresAt time.Time

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session's expiry has passed at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
