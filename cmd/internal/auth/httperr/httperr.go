// Package httperr defines the service's wire-level error contract.
//
// Every error leaving the HTTP boundary is one of a fixed set of kinds,
// each pairing a stable numeric code with an HTTP status. Numeric codes
// let clients branch on errors independently of HTTP status text and
// never change meaning across releases.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"usersvc/cmd/internal/auth/session"
)

// Kind pairs a stable numeric error code with the HTTP status it maps to.
type Kind struct {
	Code   uint16
	Status int
}

var (
	MissingFields           = Kind{4001, http.StatusBadRequest}
	NoAccessTokenHeader     = Kind{4002, http.StatusUnauthorized}
	JwtValidationError      = Kind{4003, http.StatusUnauthorized}
	JsonValidationFailed    = Kind{4004, http.StatusBadRequest}
	NotAuthorizedForAction  = Kind{4005, http.StatusUnauthorized}
	PasswordInvalid         = Kind{4006, http.StatusUnauthorized}
	SessionTokenBlacklisted = Kind{4007, http.StatusUnauthorized}
	MissingSessionCookie    = Kind{4008, http.StatusUnauthorized}
	EntityAlreadyExists     = Kind{4009, http.StatusConflict}
	InternalServerError     = Kind{5000, http.StatusInternalServerError}
	JwtGenerationError      = Kind{5001, http.StatusInternalServerError}
)

// Field names an offending request field in a validation error.
type Field struct {
	FieldName string `json:"field_name"`
}

// Response is the JSON error body.
type Response struct {
	Message string  `json:"message"`
	Code    uint16  `json:"code"`
	Details []Field `json:"details,omitempty"`
}

// Write sends an error response for the given kind.
func Write(w http.ResponseWriter, kind Kind, message string) {
	WriteFields(w, kind, message)
}

// WriteFields sends an error response carrying offending field names.
func WriteFields(w http.ResponseWriter, kind Kind, message string, fields ...string) {
	resp := Response{Message: message, Code: kind.Code}
	for _, f := range fields {
		resp.Details = append(resp.Details, Field{FieldName: f})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(kind.Status)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromSessionError converts a session service error into its wire kind and
// caller-facing message. Unrecognized errors collapse into
// InternalServerError; their detail stays server-side.
func FromSessionError(err error) (Kind, string) {
	switch {
	case errors.Is(err, session.ErrUserDoesNotExist):
		// Unknown usernames are reported as an authorization failure so
		// the response does not reveal which usernames exist.
		return NotAuthorizedForAction, "Not authorized for action"
	case errors.Is(err, session.ErrPasswordInvalid):
		return PasswordInvalid, "Invalid Password"
	case errors.Is(err, session.ErrNotAuthorized):
		return NotAuthorizedForAction, "Not authorized for action"
	case errors.Is(err, session.ErrSessionBlacklisted):
		return SessionTokenBlacklisted, "Session Token Blacklisted"
	case errors.Is(err, session.ErrInvalidToken):
		return JwtValidationError, "Invalid token"
	case errors.Is(err, session.ErrAlreadyExists):
		return EntityAlreadyExists, "Entity already exists"
	case errors.Is(err, session.ErrTokenGeneration):
		return JwtGenerationError, "Token failure"
	default:
		return InternalServerError, "Internal Server Error"
	}
}
