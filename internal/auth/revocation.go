package auth

import (
	"context"
	"time"
)

const revokedKeyPrefix = "revoked:token:"

// RevocationListInterface defines the session denylist operations.
type RevocationListInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevocationList records token IDs invalidated before their natural
// expiry. Entries only need to outlive the token they shadow, so each is
// stored with the token's remaining lifetime as TTL.
type RevocationList struct {
	kv KV
}

var _ RevocationListInterface = (*RevocationList)(nil)

// NewRevocationList creates a revocation list on top of kv.
func NewRevocationList(kv KV) *RevocationList {
	return &RevocationList{kv: kv}
}

// Revoke denylists a token ID for ttl. A non-positive ttl means the token
// has already lapsed and there is nothing to record.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return l.kv.Set(ctx, revokedKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked reports whether a token ID has been denylisted. Store errors
// are surfaced, not treated as "not revoked".
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := l.kv.Get(ctx, revokedKeyPrefix+tokenID)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
