package zsbtree

import (
	"github.com/kthorne/colbtree/internal/bufferpool"
	"github.com/kthorne/colbtree/internal/storage"
)

// maxItemSize bounds a single encoded item so it can always fit alone on
// an otherwise-empty leaf (spec §7: oversized datums are rejected
// fatally, there is no toast/overflow store). The room left after the
// header, trailer and one slot is rounded down to the 8-byte alignment
// Fits applies to the item size.
const maxItemSize = (storage.PageSize - headerSize - opaqueSize - slotSize) &^ 7

// nextTID assigns the TID for the next append into leaf: one past its
// last item, or the leaf's own lokey if it is still empty (spec §4.E
// "append-only target selection, TID assignment").
func nextTID(leaf LeafView) TID {
	n := leaf.NumItems()
	if n == 0 {
		return leaf.Opaque().Lokey
	}
	return itemLastTID(leaf.ReadItemBytes(n - 1)).Next()
}

// Insert appends datum (and, for attribute 1, rowHeader) as a new
// rightmost row in attno's tree, assigning and returning its TID. Insert
// always targets the current rightmost leaf: trees built by this package
// never receive out-of-order inserts (spec §4.E, §9).
func (t *Tree) Insert(attno int, datum []byte, rowHeader []byte) (TID, error) {
	if err := t.ensureRoot(attno); err != nil {
		return TID{}, err
	}

	for {
		buf, err := t.descendToLeaf(attno, RightmostProbe, bufferpool.Exclusive)
		if err != nil {
			return TID{}, err
		}
		page := newPageView(buf)
		leaf := newLeafView(page)

		tid := nextTID(leaf)
		enc := EncodeUncompressedItem(LeafItem{TID: tid, RowHeader: rowHeader, Datum: datum})
		if len(enc) > maxItemSize {
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return TID{}, ErrItemTooLarge
		}

		if leaf.Fits(len(enc)) {
			leaf.AppendItemBytes(enc)
			t.bp.MarkDirty(buf)
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return tid, nil
		}

		if compressLeafItems(leaf, t.codec) {
			t.bp.MarkDirty(buf)
			if leaf.Fits(len(enc)) {
				leaf.AppendItemBytes(enc)
				t.bp.Unlatch(buf)
				t.bp.Release(buf)
				return tid, nil
			}
		}

		level := page.Opaque().Level
		leftBlock := page.PageID()
		rightBlock, splitKey, err := t.splitLeaf(buf)
		t.bp.Unlatch(buf)
		t.bp.Release(buf)
		if err != nil {
			return TID{}, err
		}
		if err := t.propagateSplit(attno, int(level), splitKey, rightBlock, leftBlock); err != nil {
			return TID{}, err
		}
		// Loop: the next descent lands on the new rightmost leaf via its
		// right-link (or the freshly swapped root), where tid is re-derived.
	}
}

// InsertAt places datum at an explicit, already-assigned TID: used by
// attribute trees other than 1, which insert at the TID attribute 1's
// tree already minted for the row (spec §3 "every attribute's B-tree uses
// the same TID space"). tid must be >= the tree's current rightmost TID;
// this package only ever grows a tree at its right edge.
func (t *Tree) InsertAt(attno int, tid TID, datum []byte) error {
	if err := t.ensureRoot(attno); err != nil {
		return err
	}
	enc := EncodeUncompressedItem(LeafItem{TID: tid, Datum: datum})
	if len(enc) > maxItemSize {
		return ErrItemTooLarge
	}

	for {
		buf, err := t.descendToLeaf(attno, RightmostProbe, bufferpool.Exclusive)
		if err != nil {
			return err
		}
		page := newPageView(buf)
		leaf := newLeafView(page)

		if leaf.Fits(len(enc)) {
			leaf.AppendItemBytes(enc)
			t.bp.MarkDirty(buf)
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return nil
		}

		if compressLeafItems(leaf, t.codec) {
			t.bp.MarkDirty(buf)
			if leaf.Fits(len(enc)) {
				leaf.AppendItemBytes(enc)
				t.bp.Unlatch(buf)
				t.bp.Release(buf)
				return nil
			}
		}

		level := page.Opaque().Level
		leftBlock := page.PageID()
		rightBlock, splitKey, err := t.splitLeaf(buf)
		t.bp.Unlatch(buf)
		t.bp.Release(buf)
		if err != nil {
			return err
		}
		if err := t.propagateSplit(attno, int(level), splitKey, rightBlock, leftBlock); err != nil {
			return err
		}
	}
}
