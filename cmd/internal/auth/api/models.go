package authapi

import (
	"time"

	"usersvc/cmd/internal/auth/session"
)

type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Platform    string `json:"platform"`
	SubPlatform string `json:"sub_platform"`
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

// accessTokenResponse is the body of login and refresh responses. The
// session token travels only in the cookie, never in the body.
type accessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"date_of_birth"`
	Status      int16     `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sessionResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Platform    string    `json:"platform"`
	SubPlatform string    `json:"sub_platform"`
	RefreshedAt time.Time `json:"refreshed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Status      int16     `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Platform:    s.Platform,
		SubPlatform: s.SubPlatform,
		RefreshedAt: s.RefreshedAt,
		ExpiresAt:   s.ExpiresAt,
		Status:      int16(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
