package token

import (
	"crypto/hmac"
	"os"
	"strings"
)

const (
	// minSecretBytes is the minimum byte length for an HS256 signing secret.
	minSecretBytes = 32

	// Env var names for the signing secrets.
	// #nosec G101 -- these are environment variable names, not credentials.
	sessionSecretEnvKey = "USERSVC_JWT_SESSION_SECRET"
	accessSecretEnvKey  = "USERSVC_JWT_ACCESS_SECRET"
	issuerEnvKey        = "USERSVC_JWT_ISSUER"
)

// Config holds the signing configuration for both token classes.
//
// SessionSecret and AccessSecret are independent by policy; Validate rejects
// configurations where they are missing, short, or identical.
type Config struct {
	Issuer        string
	SessionSecret []byte
	AccessSecret  []byte
}

// DefaultIssuer is used when USERSVC_JWT_ISSUER is not set.
const DefaultIssuer = "usersvc"

// Validate checks the config against the package security policy.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return ErrConfig
	}
	if len(c.SessionSecret) < minSecretBytes || len(c.AccessSecret) < minSecretBytes {
		return ErrConfig
	}
	// Identical secrets would collapse the two token classes into one.
	if hmac.Equal(c.SessionSecret, c.AccessSecret) {
		return ErrConfig
	}
	return nil
}

// ConfigFromEnv loads the codec configuration from environment variables.
//
// Required:
//   - USERSVC_JWT_SESSION_SECRET (>= 32 bytes)
//   - USERSVC_JWT_ACCESS_SECRET  (>= 32 bytes, distinct from session secret)
//
// Optional:
//   - USERSVC_JWT_ISSUER (defaults to "usersvc")
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Issuer:        DefaultIssuer,
		SessionSecret: []byte(strings.TrimSpace(os.Getenv(sessionSecretEnvKey))),
		AccessSecret:  []byte(strings.TrimSpace(os.Getenv(accessSecretEnvKey))),
	}
	if v := strings.TrimSpace(os.Getenv(issuerEnvKey)); v != "" {
		cfg.Issuer = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
