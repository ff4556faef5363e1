package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(&Config{Addr: "localhost:1", MaxRetries: -1}, nil)
	assert.Nil(t, client)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogConnect))
}

func TestClient_TxPipelined(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	err := client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, "h", "f1", "v1", "f2", "v2")
		p.SAdd(ctx, "s", "a", "b")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "v1", mr.HGet("h", "f1"))
	fields, err := client.HGetAll(ctx, "h").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, fields)

	members, err := client.SMembers(ctx, "s").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	n, err := client.Del(ctx, "h", "s").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "closing twice is a no-op")

	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.HGetAll(ctx, "h").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.SMembers(ctx, "s").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "h").Err(), ErrClientClosed)
	assert.True(t, errors.IsCode(client.TxPipelined(ctx, func(goredis.Pipeliner) error { return nil }), errors.ErrCodeCatalogClosed))
}
