package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"usersvc/cmd/identity"
	"usersvc/cmd/security/token"
)

// PasswordVerifier checks a plaintext password against a stored digest.
// Satisfied by *password.Hasher.
type PasswordVerifier interface {
	Verify(password, encoded string) bool
}

// Service implements the high-level session operations: login, refresh,
// session listing, and subject verification.
type Service struct {
	cfg      Config
	users    identity.Store
	sessions Store
	codec    *token.Codec
	verifier PasswordVerifier
	log      *slog.Logger
}

// TokenPair is the result of a login or refresh: one token of each class.
type TokenPair struct {
	SessionToken     string
	SessionExpiresAt time.Time
	AccessToken      string
	AccessExpiresAt  time.Time
}

// LoginInput carries the credentials and device context for a login attempt.
type LoginInput struct {
	Username    string
	Password    string
	Platform    string
	SubPlatform string
}

// NewService constructs a Service over the given stores, token codec, and
// password verifier.
func NewService(cfg Config, users identity.Store, sessions Store, codec *token.Codec, verifier PasswordVerifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		codec:    codec,
		verifier: verifier,
		log:      log,
	}
}

// Login authenticates a user by username and password and opens a new
// session.
//
// Error contract:
//   - unknown username: ErrUserDoesNotExist
//   - wrong password or non-active account: ErrPasswordInvalid
//
// A successful login also opportunistically purges the user's long-expired
// active sessions. Purge failures are logged and swallowed; they never fail
// the login.
func (s *Service) Login(ctx context.Context, now time.Time, in LoginInput) (TokenPair, identity.User, error) {
	user, err := s.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if identity.IsNotFound(err) {
			return TokenPair{}, identity.User{}, ErrUserDoesNotExist
		}
		return TokenPair{}, identity.User{}, fmt.Errorf("session: load user: %w", err)
	}

	if !s.verifier.Verify(in.Password, user.PasswordDigest) {
		return TokenPair{}, identity.User{}, ErrPasswordInvalid
	}

	// A suspended or unverified account fails the same way as a wrong
	// password so that login responses do not leak account state.
	if user.Status != identity.StatusActive {
		return TokenPair{}, identity.User{}, ErrPasswordInvalid
	}

	sess := Session{
		ID:          NewSessionID(),
		UserID:      user.ID,
		Platform:    in.Platform,
		SubPlatform: in.SubPlatform,
		RefreshedAt: now,
		ExpiresAt:   now.Add(s.cfg.SessionTTL),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return TokenPair{}, identity.User{}, ErrAlreadyExists
		}
		return TokenPair{}, identity.User{}, fmt.Errorf("session: create: %w", err)
	}

	s.purgeExpired(ctx, user.ID, now)

	pair, err := s.issuePair(sess.ID, user.ID, now, sess.ExpiresAt)
	if err != nil {
		return TokenPair{}, identity.User{}, err
	}

	s.log.InfoContext(ctx, "auth.login.ok",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID),
		slog.String("platform", in.Platform),
	)
	return pair, user, nil
}

// Refresh exchanges a valid session token for a fresh token pair bound to
// the same session, extending the session row's expiry.
//
// Error contract:
//   - undecodable, forged, or expired token: ErrInvalidToken
//   - session row missing or subject mismatch: ErrNotAuthorized
//   - session blacklisted: ErrSessionBlacklisted
func (s *Service) Refresh(ctx context.Context, now time.Time, rawSessionToken string) (TokenPair, error) {
	claims, err := s.codec.DecodeSession(rawSessionToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return TokenPair{}, ErrNotAuthorized
		}
		return TokenPair{}, fmt.Errorf("session: load: %w", err)
	}

	if !s.VerifySubject(claims.UserID, sess.UserID) {
		return TokenPair{}, ErrNotAuthorized
	}

	// Blacklist wins over every other row state.
	if sess.Status == StatusBlacklisted {
		s.log.WarnContext(ctx, "auth.refresh.blacklisted",
			slog.String("user_id", sess.UserID),
			slog.String("session_id", sess.ID),
		)
		return TokenPair{}, ErrSessionBlacklisted
	}

	expiresAt := now.Add(s.cfg.SessionTTL)
	if err := s.sessions.UpdateRefreshed(ctx, sess.ID, now, expiresAt); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return TokenPair{}, ErrNotAuthorized
		}
		return TokenPair{}, fmt.Errorf("session: record refresh: %w", err)
	}

	pair, err := s.issuePair(sess.ID, sess.UserID, now, expiresAt)
	if err != nil {
		return TokenPair{}, err
	}

	s.log.InfoContext(ctx, "auth.refresh.ok",
		slog.String("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
	)
	return pair, nil
}

// UserSessions lists the sessions of targetUserID on behalf of
// requesterUserID. Returns ErrNotAuthorized unless the two match.
func (s *Service) UserSessions(ctx context.Context, requesterUserID, targetUserID string) ([]Session, error) {
	if !s.VerifySubject(requesterUserID, targetUserID) {
		return nil, ErrNotAuthorized
	}
	sessions, err := s.sessions.GetByUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	return sessions, nil
}

// Blacklist revokes a single session. Idempotent on already-blacklisted rows.
func (s *Service) Blacklist(ctx context.Context, now time.Time, sessionID string) error {
	if err := s.sessions.SetStatus(ctx, sessionID, StatusBlacklisted, now); err != nil {
		return fmt.Errorf("session: blacklist: %w", err)
	}
	s.log.InfoContext(ctx, "auth.session.blacklisted", slog.String("session_id", sessionID))
	return nil
}

// VerifySubject reports whether a token subject matches the resource owner.
// The comparison is constant-time.
func (s *Service) VerifySubject(tokenUserID, ownerUserID string) bool {
	if tokenUserID == "" || ownerUserID == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(tokenUserID), []byte(ownerUserID)) == 1
}

// purgeExpired removes the user's active sessions that expired more than the
// grace window ago. Best-effort: errors are logged, never propagated.
func (s *Service) purgeExpired(ctx context.Context, userID string, now time.Time) {
	cutoff := now.Add(-s.cfg.PurgeGrace)
	n, err := s.sessions.DeleteExpiredActive(ctx, userID, cutoff)
	if err != nil {
		s.log.WarnContext(ctx, "auth.session.purge.fail",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	if n > 0 {
		s.log.InfoContext(ctx, "auth.session.purge.ok",
			slog.String("user_id", userID),
			slog.Int64("purged", n),
		)
	}
}

func (s *Service) issuePair(sessionID, userID string, now, sessionExp time.Time) (TokenPair, error) {
	accessExp := now.Add(s.cfg.AccessTTL)

	sessionTok, err := s.codec.EncodeSession(token.SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: sessionExp,
		Issuer:    s.codec.Issuer(),
	})
	if err != nil {
		return TokenPair{}, ErrTokenGeneration
	}

	accessTok, err := s.codec.EncodeAccess(token.AccessClaims{
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: accessExp,
		Issuer:    s.codec.Issuer(),
	})
	if err != nil {
		return TokenPair{}, ErrTokenGeneration
	}

	return TokenPair{
		SessionToken:     sessionTok,
		SessionExpiresAt: sessionExp,
		AccessToken:      accessTok,
		AccessExpiresAt:  accessExp,
	}, nil
}
