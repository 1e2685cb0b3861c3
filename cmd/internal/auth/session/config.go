package session

import (
	"os"
	"time"
)

// Config defines runtime configuration for the session subsystem.
//
// It controls the lifetimes of the two token classes and the grace window
// used when purging expired sessions. It is environment-driven so that
// deployments can tune lifetimes without code changes.
type Config struct {
	// SessionTTL is the lifetime of session tokens and of the session rows
	// they are bound to. Each refresh extends the row by this amount.
	SessionTTL time.Duration

	// AccessTTL is the lifetime of stateless access tokens.
	AccessTTL time.Duration

	// PurgeGrace is how long past expiry a session row is kept before the
	// opportunistic purge at login removes it. The margin absorbs clock
	// skew between the service and the database.
	PurgeGrace time.Duration
}

// DefaultConfig returns the default lifetimes: week-long sessions,
// fifteen-minute access tokens, one hour of purge grace.
func DefaultConfig() Config {
	return Config{
		SessionTTL: 7 * 24 * time.Hour,
		AccessTTL:  15 * time.Minute,
		PurgeGrace: time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - USERSVC_SESSION_TTL
//   - USERSVC_ACCESS_TTL
//   - USERSVC_SESSION_PURGE_GRACE
//
// Returns ErrConfig if a set variable does not parse or violates the
// invariant that access tokens are shorter-lived than session tokens.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("USERSVC_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("USERSVC_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}

	if v := os.Getenv("USERSVC_SESSION_PURGE_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.PurgeGrace = d
	}

	if cfg.AccessTTL >= cfg.SessionTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
