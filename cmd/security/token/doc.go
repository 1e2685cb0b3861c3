// Package token encodes and decodes the two signed token classes used by
// usersvc: session tokens (long-lived, store-backed) and access tokens
// (short-lived, stateless).
//
// The two classes are signed with independent HS256 secrets so that a leaked
// key of one class never compromises the other, and their claim shapes are
// distinct so a token of one class cannot be replayed as the other.
//
// The codec is pure: no I/O, no store access, safe for concurrent use.
package token
