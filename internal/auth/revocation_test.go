package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationList_RevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	list := NewRevocationList(newFakeKV())

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationList_EntryLapsesWithToken(t *testing.T) {
	ctx := context.Background()
	list := NewRevocationList(newFakeKV())

	require.NoError(t, list.Revoke(ctx, "jti-1", 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationList_NonPositiveTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	list := NewRevocationList(kv)

	require.NoError(t, list.Revoke(ctx, "jti-1", 0))
	require.NoError(t, list.Revoke(ctx, "jti-2", -time.Minute))

	assert.Empty(t, kv.entries)
}
