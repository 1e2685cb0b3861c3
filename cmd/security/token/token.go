package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of a session token. SessionID must resolve to
// a persisted session row at validation time; the codec itself only checks
// signature and expiry.
type SessionClaims struct {
	SessionID string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
}

// AccessClaims is the payload of an access token. It carries no session
// reference; validating an access token never touches storage.
type AccessClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
}

// Wire shapes. The two claim schemas are intentionally disjoint.
type sessionJWTClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type accessJWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Codec signs and verifies both token classes.
type Codec struct {
	cfg Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// Issuer returns the configured "iss" claim value.
func (c *Codec) Issuer() string { return c.cfg.Issuer }

// EncodeSession signs cl as a session token. Fails only on signing failure,
// which callers should treat as internal.
func (c *Codec) EncodeSession(cl SessionClaims) (string, error) {
	wire := sessionJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cl.Issuer,
			IssuedAt:  jwt.NewNumericDate(cl.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(cl.ExpiresAt),
		},
		SessionID: cl.SessionID,
		UserID:    cl.UserID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.cfg.SessionSecret)
}

// EncodeAccess signs cl as an access token.
func (c *Codec) EncodeAccess(cl AccessClaims) (string, error) {
	wire := accessJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cl.Issuer,
			IssuedAt:  jwt.NewNumericDate(cl.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(cl.ExpiresAt),
		},
		UserID: cl.UserID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.cfg.AccessSecret)
}

// DecodeSession verifies and decodes a session token.
// Returns ErrMalformed, ErrBadSignature, or ErrExpired on failure.
func (c *Codec) DecodeSession(tok string) (SessionClaims, error) {
	var wire sessionJWTClaims
	if err := c.parse(tok, &wire, c.cfg.SessionSecret); err != nil {
		return SessionClaims{}, err
	}
	// An otherwise valid token without a session reference is not a session token.
	if wire.SessionID == "" || wire.UserID == "" {
		return SessionClaims{}, ErrMalformed
	}
	return SessionClaims{
		SessionID: wire.SessionID,
		UserID:    wire.UserID,
		IssuedAt:  numericTime(wire.IssuedAt),
		ExpiresAt: numericTime(wire.ExpiresAt),
		Issuer:    wire.Issuer,
	}, nil
}

// DecodeAccess verifies and decodes an access token.
// Returns ErrMalformed, ErrBadSignature, or ErrExpired on failure.
func (c *Codec) DecodeAccess(tok string) (AccessClaims, error) {
	var wire accessJWTClaims
	if err := c.parse(tok, &wire, c.cfg.AccessSecret); err != nil {
		return AccessClaims{}, err
	}
	if wire.UserID == "" {
		return AccessClaims{}, ErrMalformed
	}
	return AccessClaims{
		UserID:    wire.UserID,
		IssuedAt:  numericTime(wire.IssuedAt),
		ExpiresAt: numericTime(wire.ExpiresAt),
		Issuer:    wire.Issuer,
	}, nil
}

func (c *Codec) parse(tok string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(tok, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err == nil {
		return nil
	}
	// Signature is reported before claim validity: an expired forgery is a
	// forgery, not an expired token.
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
