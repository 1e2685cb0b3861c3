package authapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"usersvc/cmd/identity"
	"usersvc/cmd/internal/auth/middleware"
	"usersvc/cmd/internal/auth/session"
	"usersvc/cmd/security/password"
	"usersvc/cmd/security/token"
)

type testEnv struct {
	handler  *Handler
	server   http.Handler
	users    *identity.MemoryStore
	sessions *session.MemoryStore
	codec    *token.Codec
	hasher   *password.Hasher
	cfg      Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		Issuer:        "usersvc-test",
		SessionSecret: []byte("session-secret-0123456789abcdefgh"),
		AccessSecret:  []byte("access-secret-0123456789abcdefghi"),
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	hasher := password.NewHasher(password.Params{
		MemoryKiB:   8192,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})

	users := identity.NewMemoryStore()
	sessions := session.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := session.NewService(session.DefaultConfig(), users, sessions, codec, hasher, log)

	cfg := LoadConfigFromEnv()
	cfg.CookieSecure = false
	h := NewHandler(log, cfg, svc, users, hasher)

	mux := http.NewServeMux()
	h.Register(mux)

	guard := middleware.New(codec, middleware.NewExemptions(h.Exemptions()), false, log)

	return &testEnv{
		handler:  h,
		server:   guard.Wrap(mux),
		users:    users,
		sessions: sessions,
		codec:    codec,
		hasher:   hasher,
		cfg:      cfg,
	}
}

func (e *testEnv) addUser(t *testing.T, username, plaintext string) identity.User {
	t.Helper()
	digest, err := e.hasher.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u, err := e.users.CreateUser(t.Context(), identity.CreateUserInput{
		Username:        username,
		Email:           username + "@example.com",
		PasswordDigest:  digest,
		PasswordVersion: identity.PasswordVersionArgon2id,
		Status:          identity.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (e *testEnv) do(t *testing.T, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func wireCode(t *testing.T, rec *httptest.ResponseRecorder) uint16 {
	t.Helper()
	var body struct {
		Code uint16 `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func sessionCookie(t *testing.T, e *testEnv, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == e.cfg.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", e.cfg.SessionCookieName)
	return nil
}

func TestLoginEndToEnd(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	user := e.addUser(t, "alice1", "secret123")

	rec := e.do(t, http.MethodPost, "/api/v1/sessions",
		`{"username": "Alice1", "password": "secret123", "platform": "web", "sub_platform": "firefox"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// The body carries only the access token.
	var body accessTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ac, err := e.codec.DecodeAccess(body.Token)
	if err != nil {
		t.Fatalf("DecodeAccess: %v", err)
	}
	if ac.UserID != user.ID {
		t.Fatalf("access token user = %q, want %q", ac.UserID, user.ID)
	}

	// The session token travels in an HttpOnly cookie and resolves to a
	// persisted active session.
	cookie := sessionCookie(t, e, rec)
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	sc, err := e.codec.DecodeSession(cookie.Value)
	if err != nil {
		t.Fatalf("DecodeSession: %v", err)
	}
	row, err := e.sessions.GetByID(t.Context(), sc.SessionID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.UserID != user.ID || row.Status != session.StatusActive {
		t.Fatalf("unexpected session row: %+v", row)
	}
	approx := time.Now().UTC().Add(session.DefaultConfig().SessionTTL)
	if d := row.ExpiresAt.Sub(approx); d < -time.Minute || d > time.Minute {
		t.Fatalf("session expiry %v not near %v", row.ExpiresAt, approx)
	}
}

func TestLoginErrors(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.addUser(t, "alice1", "secret123")

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   uint16
	}{
		{
			name:       "missing fields",
			body:       `{"platform": "web"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   4001,
		},
		{
			name:       "malformed json",
			body:       `{"username": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   4004,
		},
		{
			name:       "unknown user",
			body:       `{"username": "nobody", "password": "secret123"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   4005,
		},
		{
			name:       "wrong password",
			body:       `{"username": "alice1", "password": "nope-nope"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   4006,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/v1/sessions", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if code := wireCode(t, rec); code != tc.wantCode {
				t.Fatalf("code = %d, want %d", code, tc.wantCode)
			}
		})
	}

	// Failed logins must not leave session rows behind.
	sessions, err := e.sessions.GetByUser(t.Context(), "any")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("unexpected session rows after failed logins: %d", len(sessions))
	}
}

func TestRefreshFlow(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.addUser(t, "alice1", "secret123")

	login := e.do(t, http.MethodPost, "/api/v1/sessions",
		`{"username": "alice1", "password": "secret123"}`)
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d", login.Code)
	}
	cookie := sessionCookie(t, e, login)

	t.Run("missing cookie", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/sessions/access", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := wireCode(t, rec); code != 4008 {
			t.Fatalf("code = %d, want 4008", code)
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/sessions/access", "", func(r *http.Request) {
			r.AddCookie(cookie)
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var body accessTokenResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, err := e.codec.DecodeAccess(body.Token); err != nil {
			t.Fatalf("DecodeAccess: %v", err)
		}

		// The session cookie is rotated in place: same session, new expiry.
		next := sessionCookie(t, e, rec)
		oldClaims, _ := e.codec.DecodeSession(cookie.Value)
		newClaims, err := e.codec.DecodeSession(next.Value)
		if err != nil {
			t.Fatalf("DecodeSession: %v", err)
		}
		if newClaims.SessionID != oldClaims.SessionID {
			t.Fatalf("refresh changed session: %q -> %q", oldClaims.SessionID, newClaims.SessionID)
		}
	})

	t.Run("blacklisted session", func(t *testing.T) {
		claims, _ := e.codec.DecodeSession(cookie.Value)
		if err := e.sessions.SetStatus(t.Context(), claims.SessionID, session.StatusBlacklisted, time.Now().UTC()); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}

		rec := e.do(t, http.MethodPost, "/api/v1/sessions/access", "", func(r *http.Request) {
			r.AddCookie(cookie)
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := wireCode(t, rec); code != 4007 {
			t.Fatalf("code = %d, want 4007", code)
		}
	})

	t.Run("garbage cookie", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/sessions/access", "", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: e.cfg.SessionCookieName, Value: "junk"})
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := wireCode(t, rec); code != 4003 {
			t.Fatalf("code = %d, want 4003", code)
		}
	})
}

func TestListSessions(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	user := e.addUser(t, "alice1", "secret123")
	other := e.addUser(t, "mallory", "secret123")

	login := e.do(t, http.MethodPost, "/api/v1/sessions",
		`{"username": "alice1", "password": "secret123", "platform": "web"}`)
	var tok accessTokenResponse
	if err := json.Unmarshal(login.Body.Bytes(), &tok); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	auth := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok.Token) }

	t.Run("no token", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/v1/sessions/"+user.ID, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := wireCode(t, rec); code != 4002 {
			t.Fatalf("code = %d, want 4002", code)
		}
	})

	t.Run("own sessions", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/v1/sessions/"+user.ID, "", auth)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var sessions []sessionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(sessions) != 1 || sessions[0].UserID != user.ID || sessions[0].Platform != "web" {
			t.Fatalf("unexpected listing: %+v", sessions)
		}
	})

	t.Run("foreign sessions", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/v1/sessions/"+other.ID, "", auth)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if code := wireCode(t, rec); code != 4005 {
			t.Fatalf("code = %d, want 4005", code)
		}
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)

	body := func(username, email, pass, dob string) string {
		return fmt.Sprintf(`{"username": %q, "email": %q, "password": %q, "date_of_birth": %q}`,
			username, email, pass, dob)
	}

	t.Run("success", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/users",
			body("newuser", "new@example.com", "secret123", "1990-06-15"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var resp userResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Username != "NEWUSER" {
			t.Fatalf("username = %q, want NEWUSER", resp.Username)
		}
		if resp.DateOfBirth != "1990-06-15" {
			t.Fatalf("date_of_birth = %q", resp.DateOfBirth)
		}
		if strings.Contains(rec.Body.String(), "password") {
			t.Fatalf("response leaks password material: %s", rec.Body.String())
		}

		// The fresh account can log in immediately.
		login := e.do(t, http.MethodPost, "/api/v1/sessions",
			`{"username": "newuser", "password": "secret123"}`)
		if login.Code != http.StatusOK {
			t.Fatalf("login after register: status = %d, body = %s", login.Code, login.Body.String())
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/users",
			body("newuser", "elsewhere@example.com", "secret123", "1990-06-15"))
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		if code := wireCode(t, rec); code != 4009 {
			t.Fatalf("code = %d, want 4009", code)
		}
	})

	invalid := []struct {
		name      string
		body      string
		wantCode  uint16
		wantField string
	}{
		{"short username", body("abc", "a@example.com", "secret123", "1990-06-15"), 4004, "username"},
		{"bad email", body("validname", "not-an-email", "secret123", "1990-06-15"), 4004, "email"},
		{"short password", body("validname", "a@example.com", "pw", "1990-06-15"), 4004, "password"},
		{"bad date", body("validname", "a@example.com", "secret123", "June 1990"), 4004, "date_of_birth"},
		{"missing email", `{"username": "validname", "password": "secret123", "date_of_birth": "1990-06-15"}`, 4001, "email"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/v1/users", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			var resp struct {
				Code    uint16 `json:"code"`
				Details []struct {
					FieldName string `json:"field_name"`
				} `json:"details"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", resp.Code, tc.wantCode)
			}
			found := false
			for _, d := range resp.Details {
				if d.FieldName == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("details %v missing field %q", resp.Details, tc.wantField)
			}
		})
	}
}
