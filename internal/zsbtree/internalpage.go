package zsbtree

import (
	"github.com/kthorne/colbtree/internal/alias/bx"
	"github.com/kthorne/colbtree/internal/bufferpool"
)

// internalItemSize is the fixed width of one downlink: TID (6) + child
// block number (4). Spec §3: "Internal item: Fixed-size (tid, child_block)."
const internalItemSize = TIDSize + 4

// InternalView interprets a Page's item region as the flat, directly
// indexed sorted array spec §3/§4.C describes ("stores a sorted array
// indexed directly after the page header; count is derived from the
// pd_lower offset") — unlike leaves, there is no line-pointer indirection
// because every entry is the same fixed size. pdUpper stays pinned at the
// opaque trailer's start; only pdLower moves.
type InternalView struct {
	Page
}

func newInternalView(p Page) InternalView { return InternalView{Page: p} }

func (v InternalView) NumItems() int {
	return (v.Lower() - headerSize) / internalItemSize
}

func (v InternalView) entryOffset(i int) int { return headerSize + i*internalItemSize }

// EntryAt decodes the i-th downlink.
func (v InternalView) EntryAt(i int) (TID, bufferpool.BlockNumber) {
	o := v.entryOffset(i)
	return GetTID(v.buf[o : o+TIDSize]), bx.U32(v.buf[o+TIDSize : o+internalItemSize])
}

func (v InternalView) putEntry(i int, tid TID, child bufferpool.BlockNumber) {
	o := v.entryOffset(i)
	PutTID(v.buf[o:o+TIDSize], tid)
	bx.PutU32(v.buf[o+TIDSize:o+internalItemSize], child)
}

// FreeSpace is the room left for more downlinks; there is no separate
// tuple region on internal pages so it is measured straight to the opaque
// trailer.
func (v InternalView) FreeSpace() int {
	return v.opaqueStart() - v.Lower()
}

func (v InternalView) Fits(nEntries int) bool {
	return v.FreeSpace() >= align(internalItemSize)*nEntries
}

// AppendEntry adds a new rightmost downlink.
func (v InternalView) AppendEntry(tid TID, child bufferpool.BlockNumber) {
	i := v.NumItems()
	v.putEntry(i, tid, child)
	v.setLower(v.Lower() + internalItemSize)
}

// InsertEntryAt inserts (tid, child) at logical index k, shifting entries
// k..n-1 one slot to the right (spec §4.F insert_downlink step 3:
// "memmove right, write the new downlink at k").
func (v InternalView) InsertEntryAt(k int, tid TID, child bufferpool.BlockNumber) {
	n := v.NumItems()
	v.setLower(v.Lower() + internalItemSize)
	for i := n; i > k; i-- {
		t, c := v.EntryAt(i - 1)
		v.putEntry(i, t, c)
	}
	v.putEntry(k, tid, child)
}

// RebuildFrom clears and re-appends entries in order, used by the internal
// splitter to lay out the 90/10 left/right halves.
func (v InternalView) RebuildFrom(entries []internalEntry) {
	v.setLower(headerSize)
	for _, e := range entries {
		v.AppendEntry(e.TID, e.Child)
	}
}

// internalEntry is the in-memory form used while splitting/rebuilding.
type internalEntry struct {
	TID   TID
	Child bufferpool.BlockNumber
}

func (v InternalView) allEntries() []internalEntry {
	n := v.NumItems()
	out := make([]internalEntry, n)
	for i := 0; i < n; i++ {
		t, c := v.EntryAt(i)
		out[i] = internalEntry{TID: t, Child: c}
	}
	return out
}

// BinsrchInternal returns the index of the rightmost element whose TID is
// <= key, or -1 if key is less than every element (spec §4.C). Equal keys
// route to the same child as a strictly-greater key: this is a classic
// lower-bound search for the first index with arr[i] > key, minus one.
func BinsrchInternal(key TID, v InternalView) int {
	n := v.NumItems()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		t, _ := v.EntryAt(mid)
		if t.LessEq(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}
