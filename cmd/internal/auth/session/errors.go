package session

import "errors"

var (
	// ErrUserDoesNotExist is returned by Login when no user matches the
	// supplied username.
	ErrUserDoesNotExist = errors.New("user does not exist")

	// ErrPasswordInvalid is returned by Login when the password does not
	// match, or when the account is not in a loginable state. The two cases
	// are deliberately indistinguishable to callers.
	ErrPasswordInvalid = errors.New("password invalid")

	// ErrInvalidToken is returned when a session token fails decoding,
	// signature verification, or has expired.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrNotAuthorized is returned when a token's subject does not match the
	// resource it is presented for, or when the referenced session row no
	// longer exists.
	ErrNotAuthorized = errors.New("not authorized for action")

	// ErrSessionBlacklisted is returned by Refresh when the backing session
	// row has been revoked.
	ErrSessionBlacklisted = errors.New("session blacklisted")

	// ErrAlreadyExists is returned when a session insert collides with an
	// existing row ID.
	ErrAlreadyExists = errors.New("session already exists")

	// ErrSessionNotFound is returned by stores when no row matches.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenGeneration is returned when signing a token fails.
	ErrTokenGeneration = errors.New("token generation failed")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
