package bufferpool

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kthorne/colbtree/internal/storage"
)

// newTestPool creates a temporary directory, StorageManager, and buffer pool
// for testing. Grounded on the teacher's internal/bufferpool.newTestPool.
func newTestPool(t *testing.T, capacity int) (*Pool, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "colbtree-bp-*")
	require.NoError(t, err)

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{DirPath: dir, BaseName: "attr0"}
	pool := NewPool(sm, fs, capacity)

	return pool, func() { _ = os.RemoveAll(dir) }
}

func TestPool_NewPage_ThenReadPage_RoundTrips(t *testing.T) {
	pool, cleanup := newTestPool(t, 4)
	defer cleanup()

	buf, block, err := pool.NewPage()
	require.NoError(t, err)
	require.Equal(t, BlockNumber(0), block)
	require.Len(t, buf.Bytes, storage.PageSize)

	buf.Bytes[0] = 0xAB
	pool.MarkDirty(buf)
	pool.Release(buf)
	require.NoError(t, pool.FlushAll())

	reread, err := pool.ReadPage(block)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), reread.Bytes[0])
	pool.Release(reread)
}

func TestPool_ReadPage_HitsCacheAndIncreasesPin(t *testing.T) {
	pool, cleanup := newTestPool(t, 4)
	defer cleanup()

	buf1, block, err := pool.NewPage()
	require.NoError(t, err)
	pool.Release(buf1)
	require.NoError(t, pool.FlushAll())

	buf2, err := pool.ReadPage(block)
	require.NoError(t, err)
	buf3, err := pool.ReadPage(block)
	require.NoError(t, err)

	require.Same(t, buf2, buf3)
	require.Equal(t, int32(2), buf2.pinCount())
	pool.Release(buf2)
	pool.Release(buf3)
}

func TestPool_AllPinned_NoFreeFrame(t *testing.T) {
	pool, cleanup := newTestPool(t, 1)
	defer cleanup()

	buf, _, err := pool.NewPage()
	require.NoError(t, err)
	require.NotNil(t, buf) // keep pinned, do not release

	_, _, err = pool.NewPage()
	require.ErrorIs(t, err, ErrNoFreeFrame)
}

func TestPool_ClockEvictsUnpinnedFrame(t *testing.T) {
	pool, cleanup := newTestPool(t, 2)
	defer cleanup()

	buf0, block0, err := pool.NewPage()
	require.NoError(t, err)
	buf0.Bytes[0] = 1
	pool.MarkDirty(buf0)
	pool.Release(buf0)

	buf1, _, err := pool.NewPage()
	require.NoError(t, err)
	pool.Release(buf1)

	// Pool is now full with two unpinned frames; a third NewPage should
	// evict one via CLOCK instead of erroring.
	buf2, block2, err := pool.NewPage()
	require.NoError(t, err)
	require.NotEqual(t, block0, block2)
	pool.Release(buf2)

	require.NoError(t, pool.FlushAll())

	reread, err := pool.ReadPage(block0)
	require.NoError(t, err)
	require.Equal(t, byte(1), reread.Bytes[0])
	pool.Release(reread)
}

func TestPool_LatchModesAreIndependent(t *testing.T) {
	pool, cleanup := newTestPool(t, 2)
	defer cleanup()

	buf, _, err := pool.NewPage()
	require.NoError(t, err)
	defer pool.Release(buf)

	pool.Latch(buf, Exclusive)
	buf.Bytes[0] = 9
	pool.Unlatch(buf)

	pool.Latch(buf, Shared)
	require.Equal(t, byte(9), buf.Bytes[0])
	pool.Unlatch(buf)
}
