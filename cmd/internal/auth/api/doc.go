// Package authapi exposes the authentication endpoints over HTTP.
//
// Session tokens travel in an HttpOnly cookie, access tokens in JSON
// response bodies and the Authorization header. All error responses follow
// the httperr contract.
package authapi
