package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (usersvc.users).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// GetUserByUsername loads a user by normalized username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User

	err := s.pool.QueryRow(ctx, `
		SELECT
			id, username, email, password_digest, password_version,
			date_of_birth, status, created_at, updated_at
		FROM usersvc.users
		WHERE username = $1
	`, NormalizeUsername(username)).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordDigest,
		&u.PasswordVersion,
		&u.DateOfBirth,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("identity.GetUserByUsername: %w", err)
	}

	return u, nil
}

// CreateUser inserts a new user row with a fresh ULID.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewUserID(now)
	if err != nil {
		return User{}, fmt.Errorf("identity.CreateUser: %w", err)
	}

	u := User{
		ID:              id,
		Username:        NormalizeUsername(in.Username),
		Email:           NormalizeEmail(in.Email),
		PasswordDigest:  in.PasswordDigest,
		PasswordVersion: in.PasswordVersion,
		DateOfBirth:     in.DateOfBirth,
		Status:          in.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO usersvc.users (
			id, username, email, password_digest, password_version,
			date_of_birth, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, u.ID, u.Username, u.Email, u.PasswordDigest, u.PasswordVersion, u.DateOfBirth, u.Status, now)
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: "identity.CreateUser", Field: field}
		}
		return User{}, fmt.Errorf("identity.CreateUser: %w", err)
	}

	return u, nil
}

func classifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "username", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "", true
	}
}
