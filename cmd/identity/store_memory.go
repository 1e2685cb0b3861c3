package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used for tests and DB-less dev mode.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User // keyed by normalized username
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// GetUserByUsername looks a user up by normalized username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[NormalizeUsername(username)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// CreateUser inserts a new user, enforcing username and email uniqueness.
func (s *MemoryStore) CreateUser(_ context.Context, in CreateUserInput) (User, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewUserID(now)
	if err != nil {
		return User{}, err
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return User{}, ConflictError{Op: "identity.CreateUser", Field: "username"}
	}
	for _, other := range s.users {
		if other.Email == u.Email {
			return User{}, ConflictError{Op: "identity.CreateUser", Field: "email"}
		}
	}

	s.users[u.Username] = u
	return u, nil
}
