package rescache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "tax:ontario:100000", `{"totalTax":1}`, 0))
	v, ok := m.Get(ctx, "tax:ontario:100000")
	require.True(t, ok)
	assert.Equal(t, `{"totalTax":1}`, v)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Close())
	assert.Zero(t, m.Len())
}

func TestOpenWithoutAddrIsMemory(t *testing.T) {
	c, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.IsType(t, &Memory{}, c)
}

func TestOpenUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 on loopback refuses connections.
	_, err := Open(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
