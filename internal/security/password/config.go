package password

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Params controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns a strong baseline suitable for interactive logins.
// CPU-aware parallelism is clamped to [1..4] to keep resource usage
// predictable in containers.
func DefaultParams() Params {
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
		Parallelism: uint8(threads),
		SaltLength:  16,
		KeyLength:   32,
	}
}

// FromEnv loads params from environment variables, falling back to defaults.
//
// Env surface:
//   - ROUNDTABLE_ARGON2_MEMORY_KIB
//   - ROUNDTABLE_ARGON2_ITERATIONS
//   - ROUNDTABLE_ARGON2_PARALLELISM
//   - ROUNDTABLE_ARGON2_SALT_LEN
//   - ROUNDTABLE_ARGON2_KEY_LEN
func FromEnv() Params {
	p := DefaultParams()

	if v := envUint32("ROUNDTABLE_ARGON2_MEMORY_KIB"); v >= 8*1024 {
		p.MemoryKiB = v
	}
	if v := envUint32("ROUNDTABLE_ARGON2_ITERATIONS"); v > 0 {
		p.Iterations = v
	}
	if v := envUint32("ROUNDTABLE_ARGON2_PARALLELISM"); v > 0 && v <= 255 {
		p.Parallelism = uint8(v)
	}
	if v := envUint32("ROUNDTABLE_ARGON2_SALT_LEN"); v >= 8 && v <= 64 {
		p.SaltLength = v
	}
	if v := envUint32("ROUNDTABLE_ARGON2_KEY_LEN"); v >= 16 && v <= 128 {
		p.KeyLength = v
	}

	return p
}

func envUint32(key string) uint32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
