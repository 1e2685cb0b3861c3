package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and cookie transport defaults.
type Config struct {
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName string

	// CookieDomain and CookiePath scope the session cookie.
	CookieDomain string
	CookiePath   string

	// CookieSecure marks the session cookie Secure. Disable only for local
	// plain-HTTP development.
	CookieSecure bool

	// MaxBodyBytes caps request body size for JSON endpoints.
	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		SessionCookieName: envString("USERSVC_SESSION_COOKIE_NAME", "session_token"),
		CookieDomain:      envString("USERSVC_COOKIE_DOMAIN", ""),
		CookiePath:        envString("USERSVC_COOKIE_PATH", "/"),
		CookieSecure:      envBool("USERSVC_COOKIE_SECURE", true),
		MaxBodyBytes:      envInt64("USERSVC_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "session_token"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
