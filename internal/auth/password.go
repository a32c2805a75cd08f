package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedDigest is returned when a stored digest cannot be parsed.
// This is a corrupt-record condition, distinct from a password mismatch.
var ErrMalformedDigest = errors.New("malformed password digest")

// Argon2id parameters. The digest is self-describing, so these can be
// tuned without invalidating existing records.
const (
	argonMemory      = 64 * 1024
	argonTime        = 3
	argonParallelism = 2
	argonSaltLen     = 16
	argonKeyLen      = 32
)

// PasswordHasher produces and verifies salted argon2id digests in the
// standard PHC string format.
type PasswordHasher struct{}

// NewPasswordHasher creates a password hasher.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash derives a one-way digest from plaintext with a random salt.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonParallelism, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest for plaintext under the parameters encoded
// in digest and compares in constant time. A mismatch is (false, nil); a
// digest that cannot be parsed is (false, ErrMalformedDigest).
func (h *PasswordHasher) Verify(digest, plaintext string) (bool, error) {
	salt, key, memory, time, parallelism, err := parseDigest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), salt, time, memory, parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func parseDigest(digest string) (salt, key []byte, memory, time uint32, parallelism uint8, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedDigest
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedDigest
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, 0, 0, 0, ErrMalformedDigest
	}
	return salt, key, memory, time, parallelism, nil
}
