package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeTTL is how long an emailed verification code stays valid.
const CodeTTL = 5 * time.Minute

const codeKeyPrefix = "regcode:"

// KV is the key-value contract the auth stores need from the cache. The
// backing store must give per-key atomicity; concurrent writers of the
// same key resolve last-write-wins.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// CodeStoreInterface defines verification code storage operations.
type CodeStoreInterface interface {
	Put(ctx context.Context, address, code string, ttl time.Duration) error
	Get(ctx context.Context, address string) (string, bool, error)
	Delete(ctx context.Context, address string) error
}

// CodeStore keeps at most one live verification code per destination
// address. A new Put overwrites any earlier code; after the TTL elapses
// the code is absent, never "expired-but-present".
type CodeStore struct {
	kv KV
}

var _ CodeStoreInterface = (*CodeStore)(nil)

// NewCodeStore creates a verification code store on top of kv.
func NewCodeStore(kv KV) *CodeStore {
	return &CodeStore{kv: kv}
}

// Put stores code for address with an absolute expiry of now+ttl.
func (s *CodeStore) Put(ctx context.Context, address, code string, ttl time.Duration) error {
	return s.kv.Set(ctx, codeKeyPrefix+address, []byte(code), ttl)
}

// Get returns the live code for address, or ok=false if none exists.
func (s *CodeStore) Get(ctx context.Context, address string) (string, bool, error) {
	data, err := s.kv.Get(ctx, codeKeyPrefix+address)
	if err != nil {
		return "", false, err
	}
	if data == nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// Delete discards the code for address ahead of its expiry.
func (s *CodeStore) Delete(ctx context.Context, address string) error {
	return s.kv.Delete(ctx, codeKeyPrefix+address)
}

// GenerateCode draws a uniform 6-digit code from crypto/rand. A 6-digit
// code is a low-entropy secret; it is acceptable here only because it
// lives for CodeTTL and gates account creation, not high-value access.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
