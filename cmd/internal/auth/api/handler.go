package authapi

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"usersvc/cmd/identity"
	"usersvc/cmd/internal/auth/httperr"
	"usersvc/cmd/internal/auth/middleware"
	"usersvc/cmd/internal/auth/session"
	"usersvc/cmd/security/password"
)

const minCredentialLength = 6

// Handler wires the HTTP auth endpoints to the session service and the
// credential store.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
	users    identity.Store
	hasher   *password.Hasher
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, users identity.Store, hasher *password.Hasher) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions, users: users, hasher: hasher}
}

// Register wires the auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions", h.handleLogin)
	mux.HandleFunc("POST /api/v1/sessions/access", h.handleRefresh)
	mux.HandleFunc("GET /api/v1/sessions/{user_id}", h.handleListSessions)
	mux.HandleFunc("POST /api/v1/users", h.handleRegister)
}

// Exemptions returns the path/method pairs that must stay reachable
// without an access token: login, refresh, and registration.
func (h *Handler) Exemptions() map[string][]string {
	return map[string][]string{
		"/api/v1/sessions":        {http.MethodPost},
		"/api/v1/sessions/access": {http.MethodPost},
		"/api/v1/users":           {http.MethodPost},
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httperr.Write(w, httperr.JsonValidationFailed, "Validation failed for fields")
		return
	}

	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		httperr.WriteFields(w, httperr.MissingFields, "Fields are missing", missing...)
		return
	}

	now := time.Now().UTC()
	pair, _, err := h.sessions.Login(r.Context(), now, session.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		Platform:    req.Platform,
		SubPlatform: req.SubPlatform,
	})
	if err != nil {
		h.writeServiceError(w, r, "auth.api.login.fail", err)
		return
	}

	h.setSessionCookie(w, pair.SessionToken, pair.SessionExpiresAt)
	writeJSON(w, http.StatusOK, accessTokenResponse{
		Token:     pair.AccessToken,
		ExpiresAt: pair.AccessExpiresAt,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cfg.SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		httperr.Write(w, httperr.MissingSessionCookie, "Missing Session Cookie")
		return
	}

	now := time.Now().UTC()
	pair, err := h.sessions.Refresh(r.Context(), now, cookie.Value)
	if err != nil {
		h.writeServiceError(w, r, "auth.api.refresh.fail", err)
		return
	}

	h.setSessionCookie(w, pair.SessionToken, pair.SessionExpiresAt)
	writeJSON(w, http.StatusOK, accessTokenResponse{
		Token:     pair.AccessToken,
		ExpiresAt: pair.AccessExpiresAt,
	})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AccessClaimsFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.NoAccessTokenHeader, "Missing Access Token")
		return
	}

	targetUserID := r.PathValue("user_id")
	sessions, err := h.sessions.UserSessions(r.Context(), claims.UserID, targetUserID)
	if err != nil {
		h.writeServiceError(w, r, "auth.api.sessions.fail", err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httperr.Write(w, httperr.JsonValidationFailed, "Validation failed for fields")
		return
	}

	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		missing = append(missing, "date_of_birth")
	}
	if len(missing) > 0 {
		httperr.WriteFields(w, httperr.MissingFields, "Fields are missing", missing...)
		return
	}

	var invalid []string
	if len(strings.TrimSpace(req.Username)) < minCredentialLength {
		invalid = append(invalid, "username")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		invalid = append(invalid, "email")
	}
	if len(req.Password) < minCredentialLength {
		invalid = append(invalid, "password")
	}
	dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
	if err != nil {
		invalid = append(invalid, "date_of_birth")
	}
	if len(invalid) > 0 {
		httperr.WriteFields(w, httperr.JsonValidationFailed, "Validation failed for fields", invalid...)
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.log.ErrorContext(r.Context(), "auth.api.register.hash.fail", slog.String("error", err.Error()))
		httperr.Write(w, httperr.InternalServerError, "Internal Server Error")
		return
	}

	now := time.Now().UTC()
	user, err := h.users.CreateUser(r.Context(), identity.CreateUserInput{
		Username:        req.Username,
		Email:           req.Email,
		PasswordDigest:  digest,
		PasswordVersion: identity.PasswordVersionArgon2id,
		DateOfBirth:     dob,
		Status:          identity.StatusActive,
		Now:             now,
	})
	if err != nil {
		if identity.IsConflict(err) {
			httperr.Write(w, httperr.EntityAlreadyExists, "Entity already exists")
			return
		}
		h.log.ErrorContext(r.Context(), "auth.api.register.fail", slog.String("error", err.Error()))
		httperr.Write(w, httperr.InternalServerError, "Internal Server Error")
		return
	}

	h.log.InfoContext(r.Context(), "auth.api.register.ok", slog.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, userResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DateOfBirth: user.DateOfBirth.Format(time.DateOnly),
		Status:      int16(user.Status),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, event string, err error) {
	kind, msg := httperr.FromSessionError(err)
	if kind.Status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), event, slog.String("error", err.Error()))
	} else {
		h.log.InfoContext(r.Context(), event, slog.String("error", err.Error()))
	}
	httperr.Write(w, kind, msg)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    token,
		Domain:   h.cfg.CookieDomain,
		Path:     h.cfg.CookiePath,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
