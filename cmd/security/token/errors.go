package token

import "errors"

// Public, stable errors for callers.
var (
	// ErrMalformed is returned when a token is not a structurally valid JWT
	// or carries the wrong claim shape for the requested class.
	ErrMalformed = errors.New("token malformed")

	// ErrBadSignature is returned when the signature does not verify under
	// the secret for the requested token class.
	ErrBadSignature = errors.New("token signature invalid")

	// ErrExpired is returned when the token is expired. The signature is
	// still checked first; an expired forgery reports ErrBadSignature.
	ErrExpired = errors.New("token expired")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token config")
)
