package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (usersvc.sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new session row.
func (s *PostgresStore) Create(ctx context.Context, sess Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usersvc.sessions (
			id, user_id, platform, sub_platform,
			refreshed_at, expires_at, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		sess.ID, sess.UserID, sess.Platform, sess.SubPlatform,
		sess.RefreshedAt, sess.ExpiresAt, int16(sess.Status),
		sess.CreatedAt, sess.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

// GetByID loads a session row by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, platform, sub_platform,
		       refreshed_at, expires_at, status,
		       created_at, updated_at
		FROM usersvc.sessions
		WHERE id = $1
	`, id)
	return scanSession(row)
}

// GetByUser returns all sessions for a user, newest first.
func (s *PostgresStore) GetByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, platform, sub_platform,
		       refreshed_at, expires_at, status,
		       created_at, updated_at
		FROM usersvc.sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateRefreshed records a refresh on a session row.
func (s *PostgresStore) UpdateRefreshed(ctx context.Context, id string, refreshedAt, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE usersvc.sessions
		SET refreshed_at = $2,
		    expires_at = $3,
		    updated_at = $2
		WHERE id = $1
	`, id, refreshedAt, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetStatus transitions a session's status.
func (s *PostgresStore) SetStatus(ctx context.Context, id string, status Status, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE usersvc.sessions
		SET status = $2,
		    updated_at = $3
		WHERE id = $1
	`, id, int16(status), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredActive removes a user's active sessions expired before the cutoff.
func (s *PostgresStore) DeleteExpiredActive(ctx context.Context, userID string, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM usersvc.sessions
		WHERE user_id = $1
		  AND status = $2
		  AND expires_at < $3
	`, userID, int16(StatusActive), before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		sess   Session
		status int16
	)
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Platform,
		&sess.SubPlatform,
		&sess.RefreshedAt,
		&sess.ExpiresAt,
		&status,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	sess.Status = Status(status)
	return sess, nil
}
