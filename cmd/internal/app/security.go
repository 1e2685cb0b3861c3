package app

import (
	"errors"
	"fmt"

	"usersvc/cmd/security/token"
)

// ValidateSecurityConfig enforces the token signing policy at startup.
//
// Fail-fast is intentional: a process that boots with missing or shared
// signing secrets would mint tokens nothing else can trust, or worse,
// tokens both verifiers accept. Enforcement goes through the same module
// that signs (security/token), so there is no second source of truth.
func ValidateSecurityConfig() (token.Config, error) {
	cfg, err := token.ConfigFromEnv()
	if err != nil {
		if errors.Is(err, token.ErrConfig) {
			return token.Config{}, fmt.Errorf("security policy: %w", err)
		}
		return token.Config{}, err
	}
	return cfg, nil
}
