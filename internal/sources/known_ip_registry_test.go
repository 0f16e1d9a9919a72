package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKnownIPRegistry(t *testing.T) {
	t.Parallel()

	registry := NewMemoryKnownIPRegistry()
	ctx := context.Background()

	known, err := registry.HasKnownIP(ctx, "alice", "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, registry.RememberIP(ctx, "alice", "203.0.113.7"))
	known, _ = registry.HasKnownIP(ctx, "alice", "203.0.113.7")
	assert.True(t, known)
	known, _ = registry.HasKnownIP(ctx, "bob", "203.0.113.7")
	assert.False(t, known, "addresses are tracked per user")
}

func TestRedisKnownIPRegistry(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	registry := NewRedisKnownIPRegistry(client, "vpn:ips")
	ctx := context.Background()

	mock.ExpectSIsMember("vpn:ips:alice", "203.0.113.7").SetVal(false)
	mock.ExpectSAdd("vpn:ips:alice", "203.0.113.7").SetVal(1)
	mock.ExpectSIsMember("vpn:ips:alice", "203.0.113.7").SetVal(true)
	mock.ExpectSMembers("vpn:ips:alice").SetVal([]string{"203.0.113.7"})

	known, err := registry.HasKnownIP(ctx, "alice", "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, known)
	require.NoError(t, registry.RememberIP(ctx, "alice", "203.0.113.7"))
	known, err = registry.HasKnownIP(ctx, "alice", "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, known)
	ips, err := registry.ListKnownIPs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.7"}, ips)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisKnownIPRegistry_Errors(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	registry := NewRedisKnownIPRegistry(client, "")
	ctx := context.Background()

	mock.ExpectSIsMember("ocstat:known-ips:alice", "1.2.3.4").SetErr(errors.New("READONLY"))
	mock.ExpectSAdd("ocstat:known-ips:alice", "1.2.3.4").SetErr(errors.New("READONLY"))

	_, err := registry.HasKnownIP(ctx, "alice", "1.2.3.4")
	assert.ErrorContains(t, err, "READONLY")
	assert.ErrorContains(t, registry.RememberIP(ctx, "alice", "1.2.3.4"), "READONLY")
	assert.NoError(t, mock.ExpectationsWereMet())
}
