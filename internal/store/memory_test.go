// ABOUTME: Tests for the in-memory KV implementation
// ABOUTME: Verifies it behaves like SQLiteStore and honours injected failures

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetErr(t *testing.T) {
	m := NewMemoryStore()
	m.SetErr = errors.New("disk full")

	err := m.Set(context.Background(), "k", "v")
	assert.EqualError(t, err, "disk full")

	_, err = m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
