package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used for tests and DB-less dev mode.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create inserts a new session row.
func (s *MemoryStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return ErrAlreadyExists
	}
	s.sessions[sess.ID] = sess
	return nil
}

// GetByID loads a session row by ID.
func (s *MemoryStore) GetByID(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// GetByUser returns all sessions for a user, newest first.
func (s *MemoryStore) GetByUser(_ context.Context, userID string) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateRefreshed records a refresh on a session row.
func (s *MemoryStore) UpdateRefreshed(_ context.Context, id string, refreshedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.RefreshedAt = refreshedAt
	sess.ExpiresAt = expiresAt
	sess.UpdatedAt = refreshedAt
	s.sessions[id] = sess
	return nil
}

// SetStatus transitions a session's status.
func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Status = status
	sess.UpdatedAt = now
	s.sessions[id] = sess
	return nil
}

// DeleteExpiredActive removes a user's active sessions expired before the cutoff.
func (s *MemoryStore) DeleteExpiredActive(_ context.Context, userID string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.Status == StatusActive && sess.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
