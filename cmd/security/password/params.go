package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Params controls Argon2id hashing cost. MemoryKiB is in KiB as required by
// argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns a conservative baseline for interactive logins.
func DefaultParams() Params {
	// Clamp parallelism to [1..4] to keep resource usage predictable in
	// containers regardless of host core count.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Params{
		MemoryKiB:   64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
		SaltLength:  16,
		KeyLength:   32,
	}
}

// ParamsFromEnv loads hashing parameters from environment variables,
// falling back to DefaultParams for unset keys.
//
// Env surface:
//   - USERSVC_ARGON2_MEMORY_KIB
//   - USERSVC_ARGON2_ITERATIONS
//   - USERSVC_ARGON2_PARALLELISM
//   - USERSVC_ARGON2_SALT_LEN
//   - USERSVC_ARGON2_KEY_LEN
func ParamsFromEnv() (Params, error) {
	p := DefaultParams()

	if v, ok := os.LookupEnv("USERSVC_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024)
		if err != nil {
			return Params{}, fmt.Errorf("USERSVC_ARGON2_MEMORY_KIB: %w", err)
		}
		p.MemoryKiB = u
	}
	if v, ok := os.LookupEnv("USERSVC_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 32)
		if err != nil {
			return Params{}, fmt.Errorf("USERSVC_ARGON2_ITERATIONS: %w", err)
		}
		p.Iterations = u
	}
	if v, ok := os.LookupEnv("USERSVC_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Params{}, fmt.Errorf("USERSVC_ARGON2_PARALLELISM: %w", err)
		}
		p.Parallelism = uint8(u) // #nosec G115 -- bounded to [1..64] above.
	}
	if v, ok := os.LookupEnv("USERSVC_ARGON2_SALT_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Params{}, fmt.Errorf("USERSVC_ARGON2_SALT_LEN: %w", err)
		}
		p.SaltLength = u
	}
	if v, ok := os.LookupEnv("USERSVC_ARGON2_KEY_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Params{}, fmt.Errorf("USERSVC_ARGON2_KEY_LEN: %w", err)
		}
		p.KeyLength = u
	}

	return p, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}
