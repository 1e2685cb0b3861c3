// Package password hashes and verifies user credentials with Argon2id.
//
// Digests use a PHC-style encoded string that embeds the salt and the cost
// parameters, so no separate salt storage is needed and parameters can be
// raised without invalidating existing digests.
//
// Security notes:
//   - Digest strings are treated as untrusted input during Verify and are
//     parsed strictly; verification refuses digests whose parameters exceed
//     reasonable bounds (anti-DoS).
//   - Comparison is constant-time.
package password
