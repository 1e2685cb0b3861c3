package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// MigrateOnStart applies embedded migrations before serving.
	MigrateOnStart bool

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// AuthDisabled turns the authorization middleware off. Development only;
	// every request then passes unauthenticated.
	AuthDisabled bool

	// CORS policy for browser clients.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("USERSVC_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("USERSVC_LOG_LEVEL", "info"),
		LogFormat: EnvString("USERSVC_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("USERSVC_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("USERSVC_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("USERSVC_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("USERSVC_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("USERSVC_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("USERSVC_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("USERSVC_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("USERSVC_DB_MIN_CONNS", 0),

		MigrateOnStart: EnvBool("USERSVC_DB_MIGRATE_ON_START", false),

		ReadinessRequireDB: EnvBool("USERSVC_READINESS_REQUIRE_DB", false),

		AuthDisabled: EnvBool("USERSVC_AUTH_DISABLED", false),

		CORSAllowedOrigins:   EnvStringSlice("USERSVC_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("USERSVC_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("USERSVC_CORS_MAX_AGE_SECONDS", 600),
	}
}
