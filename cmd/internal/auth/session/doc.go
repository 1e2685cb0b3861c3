// Package session implements the service's session lifecycle.
//
// A login creates a server-side session row and issues a token pair: a
// long-lived session token bound to the row (revocable via blacklisting)
// and a short-lived stateless access token. Refreshing exchanges a valid
// session token for a fresh pair without re-authenticating, after the
// backing row is checked against the blacklist.
//
// Transport (HTTP) integration lives in the api and middleware packages.
package session
