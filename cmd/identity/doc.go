// Package identity owns the user credential model: user records, status
// transitions, username normalization, and the credential Store boundary.
//
// The session subsystem consumes this package read-only during login; user
// creation happens through the registration endpoint.
package identity
