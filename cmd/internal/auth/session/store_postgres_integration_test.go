package session

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"usersvc/cmd/identity"
)

// Integration tests are enabled when USERSVC_DATABASE_URL is set.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresSessionStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPGXPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateUser(ctx, t, pool)
	t.Cleanup(func() { cleanupUserData(ctx, t, pool, userID) })

	now := time.Now().UTC()
	sess := Session{
		ID:          NewSessionID(),
		UserID:      userID,
		Platform:    "web",
		SubPlatform: "firefox",
		RefreshedAt: now,
		ExpiresAt:   now.Add(time.Hour),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A repeated insert with the same ID must surface ErrAlreadyExists.
	if err := store.Create(ctx, sess); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create = %v, want ErrAlreadyExists", err)
	}

	got, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != userID || got.Platform != "web" || got.SubPlatform != "firefox" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Status != StatusActive {
		t.Fatalf("status = %v, want active", got.Status)
	}

	if _, err := store.GetByID(ctx, NewSessionID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("GetByID(unknown) = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresSessionStore_UpdateRefreshed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPGXPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateUser(ctx, t, pool)
	t.Cleanup(func() { cleanupUserData(ctx, t, pool, userID) })

	now := time.Now().UTC()
	sess := Session{
		ID: NewSessionID(), UserID: userID, Status: StatusActive,
		RefreshedAt: now, ExpiresAt: now.Add(time.Hour),
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := now.Add(30 * time.Minute)
	if err := store.UpdateRefreshed(ctx, sess.ID, later, later.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateRefreshed: %v", err)
	}

	got, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// Postgres timestamps are microsecond-precision; compare at that granularity.
	if !got.RefreshedAt.UTC().Truncate(time.Microsecond).Equal(later.Truncate(time.Microsecond)) {
		t.Fatalf("refreshed_at = %v, want %v", got.RefreshedAt, later)
	}

	if err := store.UpdateRefreshed(ctx, NewSessionID(), later, later); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("UpdateRefreshed(unknown) = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresSessionStore_PurgeKeepsBlacklisted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPGXPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateUser(ctx, t, pool)
	t.Cleanup(func() { cleanupUserData(ctx, t, pool, userID) })

	now := time.Now().UTC()
	longExpired := Session{
		ID: NewSessionID(), UserID: userID, Status: StatusActive,
		RefreshedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-2 * time.Hour),
		CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour),
	}
	blacklisted := longExpired
	blacklisted.ID = NewSessionID()
	blacklisted.Status = StatusBlacklisted

	live := longExpired
	live.ID = NewSessionID()
	live.ExpiresAt = now.Add(time.Hour)

	for _, sess := range []Session{longExpired, blacklisted, live} {
		if err := store.Create(ctx, sess); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := store.DeleteExpiredActive(ctx, userID, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpiredActive: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}

	if _, err := store.GetByID(ctx, longExpired.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected long-expired session purged, got %v", err)
	}
	for _, id := range []string{blacklisted.ID, live.ID} {
		if _, err := store.GetByID(ctx, id); err != nil {
			t.Fatalf("session %s should survive purge: %v", id, err)
		}
	}
}

func TestPostgresSessionStore_SetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustPGXPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateUser(ctx, t, pool)
	t.Cleanup(func() { cleanupUserData(ctx, t, pool, userID) })

	now := time.Now().UTC()
	sess := Session{
		ID: NewSessionID(), UserID: userID, Status: StatusActive,
		RefreshedAt: now, ExpiresAt: now.Add(time.Hour),
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SetStatus(ctx, sess.ID, StatusBlacklisted, now); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusBlacklisted {
		t.Fatalf("status = %v, want blacklisted", got.Status)
	}
}

func mustPGXPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("USERSVC_DATABASE_URL")
	if dbURL == "" {
		t.Skip("USERSVC_DATABASE_URL is not set; skipping Postgres integration test")
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("pgxpool.ParseConfig: %v", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnLifetime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgxpool.NewWithConfig: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (USERSVC_DATABASE_URL set): %v", err)
		}
		t.Fatalf("pool.Ping: %v", err)
	}
	return pool
}

func mustCreateUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	now := time.Now().UTC()
	id, err := identity.NewUserID(now)
	if err != nil {
		t.Fatalf("NewUserID: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO usersvc.users (
			id, username, email, password_digest, password_version,
			date_of_birth, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, id, "TEST_"+id, strings.ToLower(id)+"@test.invalid", "$argon2id$test", 1,
		time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), int16(identity.StatusActive), now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func cleanupUserData(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID string) {
	t.Helper()

	if _, err := pool.Exec(ctx, `DELETE FROM usersvc.sessions WHERE user_id = $1`, userID); err != nil {
		t.Logf("cleanup sessions: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM usersvc.users WHERE id = $1`, userID); err != nil {
		t.Logf("cleanup user: %v", err)
	}
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
