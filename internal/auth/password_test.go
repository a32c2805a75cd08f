package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher()

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$"))
	assert.NotContains(t, digest, "secret1")

	ok, err := hasher.Verify(digest, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(digest, "secret2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_DigestsAreSalted(t *testing.T) {
	hasher := NewPasswordHasher()

	d1, err := hasher.Hash("same-password")
	require.NoError(t, err)
	d2, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	hasher := NewPasswordHasher()

	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"not a digest", "plaintext-left-over"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"bad version", "$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=abc$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=2$!!$aGFzaA"},
		{"bad key encoding", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$!!"},
		{"truncated", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.digest, "whatever")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}
