package shm

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/internal/hash"
	"github.com/hupe1980/geobridge/internal/resource"
)

func newRegistry(t *testing.T, budget Budget) *Registry {
	t.Helper()
	r := NewRegistry(Options{Dir: t.TempDir(), Budget: budget})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func uniqueKey(words int) string {
	return Key(fmt.Sprintf("_%d_", os.Getpid()), uuid.NewString()[:8], words)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "_42_terrain_1024", Key("_42_", "terrain", 1024))
	assert.Equal(t, "_42_0123456789abcdef_8", Key("_42_", "0123456789abcdef", 8))

	long := "0123456789abcdefg"
	want := fmt.Sprintf("_42_%08X_8", hash.CRC32C([]byte(long)))
	assert.Equal(t, want, Key("_42_", long, 8))
}

func TestProcessScope(t *testing.T) {
	assert.Equal(t, fmt.Sprintf("_%d_", os.Getpid()), ProcessScope())
}

func TestRegistry_Scope(t *testing.T) {
	assert.Equal(t, ProcessScope(), NewRegistry(Options{}).Scope())

	r := NewRegistry(Options{Scope: "_test_"})
	assert.Equal(t, "_test_", r.Scope())
	assert.Equal(t, "_test_mesh_2048", r.KeyFor("mesh", 2048))
}

func TestRegistry_AcquireCreatesZeroed(t *testing.T) {
	r := newRegistry(t, nil)
	key := uniqueKey(1024)

	m, h, found, err := r.Acquire(key, 1024)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, key, m.Key())
	assert.Equal(t, 4096, m.Size())
	assert.Equal(t, 1024, h.SizeWords())
	assert.Len(t, m.Bytes(), 4096)
	for _, b := range m.Bytes() {
		if b != 0 {
			t.Fatal("new segment not zero-filled")
		}
	}
	require.NoError(t, m.Release())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Zero(), ErrReleased)
	require.NoError(t, h.Close())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ReuseSharesMemory(t *testing.T) {
	r := newRegistry(t, nil)
	key := uniqueKey(16)

	m1, h1, found, err := r.Acquire(key, 16)
	require.NoError(t, err)
	assert.False(t, found)
	copy(m1.Bytes(), "hello")

	m2, h2, found, err := r.Acquire(key, 16)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, r.Refs(key))
	assert.Equal(t, "hello", string(m2.Bytes()[:5]))

	require.NoError(t, m1.Release())
	require.NoError(t, m2.Release())

	require.NoError(t, h1.Close())
	assert.Equal(t, 1, r.Refs(key))
	require.NoError(t, h1.Close(), "close is idempotent")
	assert.Equal(t, 1, r.Refs(key))

	// Released mappings do not free the segment.
	m3, err := h2.Map()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(m3.Bytes()[:5]))
	require.NoError(t, m3.Release())

	require.NoError(t, h2.Close())
	assert.Equal(t, 0, r.Refs(key))
	_, err = h2.Map()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestRegistry_SizeMismatch(t *testing.T) {
	r := newRegistry(t, nil)
	key := uniqueKey(16)

	m, h, _, err := r.Acquire(key, 16)
	require.NoError(t, err)
	defer h.Close()
	defer m.Release()

	_, _, _, err = r.Acquire(key, 32)
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	assert.Equal(t, 1, r.Refs(key))
}

func TestRegistry_InvalidRequests(t *testing.T) {
	r := newRegistry(t, nil)

	_, _, _, err := r.Acquire("k", 0)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, _, _, err = r.Acquire("a/b", 4)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRegistry_Budget(t *testing.T) {
	rc := resource.NewController(resource.Config{MappedLimitBytes: 4096})
	r := newRegistry(t, rc)

	m, h, _, err := r.Acquire(uniqueKey(1024), 1024)
	require.NoError(t, err)
	require.NoError(t, m.Release())
	assert.Equal(t, int64(4096), rc.MappedBytes())

	_, _, _, err = r.Acquire(uniqueKey(1), 1)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.ErrorIs(t, err, resource.ErrMappedLimitExceeded)
	assert.Contains(t, err.Error(), "4 bytes requested, 4096 of 4096 in use")

	require.NoError(t, h.Close())
	assert.Zero(t, rc.MappedBytes())

	m, h, _, err = r.Acquire(uniqueKey(1), 1)
	require.NoError(t, err)
	require.NoError(t, m.Release())
	require.NoError(t, h.Close())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(Options{Dir: t.TempDir()})
	m, h, _, err := r.Acquire(uniqueKey(4), 4)
	require.NoError(t, err)
	require.NoError(t, m.Release())

	require.NoError(t, r.Close())
	assert.Equal(t, 0, r.Len())
	assert.NoError(t, h.Close())
}

func TestSlot(t *testing.T) {
	r := newRegistry(t, nil)
	var s Slot
	assert.False(t, s.Committed())
	assert.Empty(t, s.Key())

	keyA := uniqueKey(8)
	m, found, err := s.Acquire(r, keyA, 8)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, m.Release())

	s.MarkCommitted()
	assert.True(t, s.Committed())

	// Same key: reused, no extra reference.
	m, found, err = s.Acquire(r, keyA, 8)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, r.Refs(keyA))
	assert.True(t, s.Committed())
	require.NoError(t, m.Release())

	s.Invalidate()
	assert.False(t, s.Committed())
	s.MarkCommitted()

	// Different key: previous handle closed, committed state reset.
	keyB := uniqueKey(16)
	m, found, err = s.Acquire(r, keyB, 16)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, s.Committed())
	assert.Equal(t, 0, r.Refs(keyA))
	assert.Equal(t, keyB, s.Key())
	require.NoError(t, m.Release())

	require.NoError(t, s.Close())
	assert.Nil(t, s.Handle())
	assert.Equal(t, 0, r.Len())
}

func TestSlot_MarkCommittedWithoutHandle(t *testing.T) {
	var s Slot
	s.MarkCommitted()
	assert.False(t, s.Committed())
}
