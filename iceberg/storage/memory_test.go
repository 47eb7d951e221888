package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPutDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Put(ctx, "a", []byte("1")))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	ok, err := m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "a"))
	ok, err = m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPutIfAbsentConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutIfAbsent(ctx, "k", []byte("v1")))
	err := m.PutIfAbsent(ctx, "k", []byte("v2"))
	assert.ErrorIs(t, err, ErrConflict)

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestMemoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// CAS against absent key with nil expected succeeds.
	require.NoError(t, m.CompareAndSwap(ctx, "ptr", nil, []byte("1")))

	// CAS with stale expected fails.
	err := m.CompareAndSwap(ctx, "ptr", []byte("0"), []byte("2"))
	assert.ErrorIs(t, err, ErrConflict)

	// CAS with correct expected succeeds.
	require.NoError(t, m.CompareAndSwap(ctx, "ptr", []byte("1"), []byte("2")))
	v, err := m.Get(ctx, "ptr")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestMemoryListSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "metadata/v2.metadata.json", []byte("x")))
	require.NoError(t, m.Put(ctx, "metadata/v1.metadata.json", []byte("x")))
	require.NoError(t, m.Put(ctx, "data/f.parquet", []byte("x")))

	keys, err := m.List(ctx, "metadata/")
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata/v1.metadata.json", "metadata/v2.metadata.json"}, keys)
}
