// Package middleware gates HTTP requests on access tokens.
//
// Every request not covered by the exemption table must carry a bearer
// access token in the Authorization header. Validation is stateless: the
// token's signature and expiry are checked, the verified claims go into
// the request context, and no store is consulted.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"usersvc/cmd/internal/auth/httperr"
	"usersvc/cmd/security/token"
)

// Exemptions is the set of path/method pairs that bypass authentication.
// It is built once at startup and never mutated afterwards.
type Exemptions struct {
	byPath map[string]map[string]struct{}
}

// NewExemptions builds an exemption table from a path to allowed-methods
// mapping. The input map is copied; later changes to it have no effect.
func NewExemptions(paths map[string][]string) Exemptions {
	byPath := make(map[string]map[string]struct{}, len(paths))
	for path, methods := range paths {
		set := make(map[string]struct{}, len(methods))
		for _, m := range methods {
			set[strings.ToUpper(m)] = struct{}{}
		}
		byPath[path] = set
	}
	return Exemptions{byPath: byPath}
}

// Contains reports whether the path/method pair is exempt. CORS preflight
// (OPTIONS) is always exempt.
func (e Exemptions) Contains(path, method string) bool {
	if method == http.MethodOptions {
		return true
	}
	methods, ok := e.byPath[path]
	if !ok {
		return false
	}
	_, ok = methods[strings.ToUpper(method)]
	return ok
}

// Middleware validates access tokens on incoming requests.
type Middleware struct {
	codec    *token.Codec
	exempt   Exemptions
	disabled bool
	log      *slog.Logger
}

// New constructs the middleware. When disabled is true every request
// passes through unauthenticated; the switch exists for local development
// and must never be set in production.
func New(codec *token.Codec, exempt Exemptions, disabled bool, log *slog.Logger) *Middleware {
	if log == nil {
		log = slog.Default()
	}
	return &Middleware{codec: codec, exempt: exempt, disabled: disabled, log: log}
}

// Wrap returns next guarded by access-token validation.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || m.exempt.Contains(r.URL.Path, r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			httperr.Write(w, httperr.NoAccessTokenHeader, "Missing Access Token")
			return
		}

		claims, err := m.codec.DecodeAccess(raw)
		if err != nil {
			m.log.InfoContext(r.Context(), "auth.middleware.reject",
				slog.String("path", r.URL.Path),
				slog.String("reason", err.Error()),
			)
			httperr.Write(w, httperr.JwtValidationError, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccessClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
