package identity

import "time"

// Status is a user account's lifecycle state. Stored as an integer; values
// are part of the storage contract and must not be renumbered.
type Status int

const (
	// StatusNotVerified is a freshly created account pending verification.
	StatusNotVerified Status = 1
	// StatusActive is a fully enabled account; only Active users can log in.
	StatusActive Status = 2
	// StatusSuspended is an administratively disabled account.
	StatusSuspended Status = 3
)

// PasswordVersion identifies the hashing scheme of a stored digest, so the
// scheme can evolve without rehashing every credential at once.
type PasswordVersion int

// PasswordVersionArgon2id is the current Argon2id/PHC scheme.
const PasswordVersionArgon2id PasswordVersion = 1

// User is the service's security principal.
//
// Username is stored upper-cased (see NormalizeUsername) so that lookups are
// case-insensitive by construction. PasswordDigest must never be serialized
// to clients.
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordDigest  string
	PasswordVersion PasswordVersion
	DateOfBirth     time.Time
	Status          Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
