package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "products")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "products", []byte(`[]`), 0))
	val, err := m.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(val))

	require.NoError(t, m.Delete(ctx, "products"))
	_, err = m.Get(ctx, "products")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(val))

	val[1] = 'y'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "session:1", []byte("s"), time.Minute))

	_, err := m.Get(ctx, "session:1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "session:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.ErrorIs(t, m.Set(ctx, "k", nil, 0), context.Canceled)
	assert.ErrorIs(t, m.Ping(ctx), context.Canceled)
}
