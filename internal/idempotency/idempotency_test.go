package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"skillbridge-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "idem:v1:submit:abc", Key("v1", "submit", "abc"))
	assert.NotEqual(t, Key("v1", "submit", "abc"), Key("v2", "submit", "abc"))
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	key := Key(uuid.NewString(), "submit", "k1")

	_, reserved, err := s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, reserved)

	_, reserved, err = s.Reserve(ctx, key)
	assert.False(t, reserved)
	assert.ErrorIs(t, err, domain.ErrConflictRetry)

	require.NoError(t, s.Complete(ctx, key, "app-1"))
	result, reserved, err := s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "app-1", result)

	require.NoError(t, s.Release(ctx, key))
	result, _, err = s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "app-1", result, "release must not erase a completed key")

	other := Key(uuid.NewString(), "submit", "k2")
	_, reserved, err = s.Reserve(ctx, other)
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, s.Release(ctx, other))
	_, reserved, err = s.Reserve(ctx, other)
	require.NoError(t, err)
	assert.True(t, reserved, "a released key can be claimed again")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	ctx := context.Background()
	_, reserved, err := s.Reserve(ctx, "k")
	require.NoError(t, err)
	require.True(t, reserved)

	now = now.Add(2 * time.Minute)
	_, reserved, err = s.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Minute))
}

func TestMemoryStore_PendingLease(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, reserved, err := s.Reserve(ctx, "abandoned")
	require.NoError(t, err)
	require.True(t, reserved)

	_, reserved, err = s.Reserve(ctx, "done")
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, s.Complete(ctx, "done", "app-1"))

	now = now.Add(PendingLease + time.Second)

	_, reserved, err = s.Reserve(ctx, "abandoned")
	require.NoError(t, err)
	assert.True(t, reserved, "an abandoned reservation lapses after the lease")

	result, reserved, err := s.Reserve(ctx, "done")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "app-1", result, "completed keys keep the full TTL")
}
