package zsbtree

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kthorne/colbtree/internal/bufferpool"
	"github.com/kthorne/colbtree/internal/meta"
	"github.com/kthorne/colbtree/internal/storage"
)

// newTestTree wires a Tree over a real on-disk buffer pool and metapage
// service, the way newTestPool does for the bufferpool package it's
// grounded on.
func newTestTree(t *testing.T, capacity int) (*Tree, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "colbtree-zs-*")
	require.NoError(t, err)

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{DirPath: dir, BaseName: "attr1"}
	pool := bufferpool.NewPool(sm, fs, capacity)

	ms, err := meta.Open(dir, "attr1")
	require.NoError(t, err)

	tree := Open(pool, ms, RLECodec{}, AlwaysVisibleOracle{})
	return tree, func() { _ = os.RemoveAll(dir) }
}

func TestTree_InsertThenScan_RoundTrips(t *testing.T) {
	tree, cleanup := newTestTree(t, 64)
	defer cleanup()

	var tids []TID
	for i := 0; i < 20; i++ {
		tid, err := tree.Insert(1, []byte(fmt.Sprintf("datum-%02d", i)), []byte("rh"))
		require.NoError(t, err)
		tids = append(tids, tid)
	}

	scan, err := tree.BeginScan(1, LowSentinel, nil)
	require.NoError(t, err)
	defer scan.Close()

	for i := 0; i < 20; i++ {
		tid, datum, ok, err := scan.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, tids[i], tid)
		require.Equal(t, fmt.Sprintf("datum-%02d", i), string(datum))
	}
	_, _, ok, err := scan.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_EmptyScan(t *testing.T) {
	tree, cleanup := newTestTree(t, 8)
	defer cleanup()

	scan, err := tree.BeginScan(1, LowSentinel, nil)
	require.NoError(t, err)
	_, _, ok, err := scan.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_LastTID_Monotonic(t *testing.T) {
	tree, cleanup := newTestTree(t, 32)
	defer cleanup()

	empty, err := tree.LastTID(1)
	require.NoError(t, err)
	require.Equal(t, LowSentinel, empty)

	var prev TID
	for i := 0; i < 10; i++ {
		tid, err := tree.Insert(1, []byte("x"), nil)
		require.NoError(t, err)
		if i > 0 {
			require.True(t, prev.Less(tid))
		}
		prev = tid

		last, err := tree.LastTID(1)
		require.NoError(t, err)
		require.Equal(t, tid.Next(), last)
	}
}

func TestTree_SingleInsert(t *testing.T) {
	tree, cleanup := newTestTree(t, 8)
	defer cleanup()

	tid, err := tree.Insert(1, []byte("only-row"), []byte("rh"))
	require.NoError(t, err)
	require.Equal(t, LowSentinel, tid)
}

func TestTree_LeafSplit_ManyInserts(t *testing.T) {
	tree, cleanup := newTestTree(t, 256)
	defer cleanup()

	const n = 4000
	var tids []TID
	for i := 0; i < n; i++ {
		tid, err := tree.Insert(1, []byte(fmt.Sprintf("row-%05d-payload", i)), []byte("h"))
		require.NoError(t, err)
		tids = append(tids, tid)
	}

	// Successive TIDs must still be strictly increasing across whatever
	// splits happened underneath.
	for i := 1; i < n; i++ {
		require.True(t, tids[i-1].Less(tids[i]), "tid %d not after tid %d", i, i-1)
	}

	scan, err := tree.BeginScan(1, LowSentinel, nil)
	require.NoError(t, err)
	defer scan.Close()

	count := 0
	for {
		tid, datum, ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.Equal(t, tids[count], tid)
		require.Equal(t, fmt.Sprintf("row-%05d-payload", count), string(datum))
		count++
	}
	require.Equal(t, n, count)
}

func TestTree_ScanResumesFromMidpoint(t *testing.T) {
	tree, cleanup := newTestTree(t, 64)
	defer cleanup()

	var tids []TID
	for i := 0; i < 30; i++ {
		tid, err := tree.Insert(1, []byte(fmt.Sprintf("v%d", i)), nil)
		require.NoError(t, err)
		tids = append(tids, tid)
	}

	scan, err := tree.BeginScan(1, tids[15], nil)
	require.NoError(t, err)
	defer scan.Close()

	tid, datum, ok, err := scan.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tids[15], tid)
	require.Equal(t, "v15", string(datum))
}

func TestTree_CompressionIsTransparentToScan(t *testing.T) {
	tree, cleanup := newTestTree(t, 32)
	defer cleanup()

	const n = 50
	var tids []TID
	for i := 0; i < n; i++ {
		tid, err := tree.Insert(2, []byte(fmt.Sprintf("c%03d", i)), nil)
		require.NoError(t, err)
		tids = append(tids, tid)
	}

	buf, err := tree.descendToLeaf(2, LowSentinel, bufferpool.Shared)
	require.NoError(t, err)
	leaf := newLeafView(newPageView(buf))
	compressed := compressLeafItems(leaf, tree.codec)
	if compressed {
		tree.bp.MarkDirty(buf)
	}
	tree.bp.Unlatch(buf)
	tree.bp.Release(buf)

	scan, err := tree.BeginScan(2, LowSentinel, nil)
	require.NoError(t, err)
	defer scan.Close()

	for i := 0; i < n; i++ {
		tid, datum, ok, err := scan.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, tids[i], tid)
		require.Equal(t, fmt.Sprintf("c%03d", i), string(datum))
	}
}

func TestTree_DeleteProbe_FindsAndReportsMissing(t *testing.T) {
	tree, cleanup := newTestTree(t, 16)
	defer cleanup()

	tid, err := tree.Insert(1, []byte("row"), []byte("rh"))
	require.NoError(t, err)

	ok, err := tree.DeleteProbe(nil, tid)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tree.DeleteProbe(nil, TID{Block: 99, Offset: 1})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_DeleteProbe_FindsHitInsideCompressedRun(t *testing.T) {
	tree, cleanup := newTestTree(t, 16)
	defer cleanup()

	var tids []TID
	for i := 0; i < 10; i++ {
		tid, err := tree.Insert(1, []byte(fmt.Sprintf("r%d", i)), []byte("rh"))
		require.NoError(t, err)
		tids = append(tids, tid)
	}

	buf, err := tree.descendToLeaf(1, LowSentinel, bufferpool.Shared)
	require.NoError(t, err)
	leaf := newLeafView(newPageView(buf))
	require.True(t, compressLeafItems(leaf, tree.codec))
	tree.bp.MarkDirty(buf)
	tree.bp.Unlatch(buf)
	tree.bp.Release(buf)

	ok, err := tree.DeleteProbe(nil, tids[5])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTree_InsertAt_PlacesExplicitTID(t *testing.T) {
	tree, cleanup := newTestTree(t, 16)
	defer cleanup()

	tid, err := tree.Insert(1, []byte("row"), []byte("rh"))
	require.NoError(t, err)

	require.NoError(t, tree.InsertAt(2, tid, []byte("col2-datum")))

	scan, err := tree.BeginScan(2, LowSentinel, nil)
	require.NoError(t, err)
	defer scan.Close()

	gotTID, datum, ok, err := scan.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tid, gotTID)
	require.Equal(t, "col2-datum", string(datum))
}

func TestTree_RejectsOversizedItem(t *testing.T) {
	tree, cleanup := newTestTree(t, 8)
	defer cleanup()

	huge := make([]byte, storage.PageSize)
	_, err := tree.Insert(1, huge, nil)
	require.ErrorIs(t, err, ErrItemTooLarge)
}
