package zsbtree

import (
	"github.com/kthorne/colbtree/internal/bufferpool"
)

// Scan is a resumable, forward, TID-ordered cursor over one attribute's
// tree (spec §4.H). It holds at most one page pinned/latched at a time
// between Next calls, releasing it as soon as it advances off the end.
type Scan struct {
	tree     *Tree
	attno    int
	snapshot Snapshot
	cursor   TID // next TID to consider; advances monotonically
	closed   bool

	// pending holds items already decoded from the current leaf but not yet
	// returned: one Next call decodes every item on the page at or after the
	// cursor, including every item of each compressed run there.
	pending []LeafItem
}

// BeginScan opens a forward scan of attno starting at the first TID >=
// start.
func (t *Tree) BeginScan(attno int, start TID, snap Snapshot) (*Scan, error) {
	return &Scan{tree: t, attno: attno, snapshot: snap, cursor: start}, nil
}

// Next returns the next visible (tid, datum) pair. ok is false once the
// scan is exhausted; callers should then call Close.
func (s *Scan) Next() (TID, []byte, bool, error) {
	if s.closed {
		return TID{}, nil, false, ErrScanClosed
	}
	t := s.tree

	for {
		if len(s.pending) > 0 {
			it := s.pending[0]
			s.pending = s.pending[1:]
			s.cursor = it.TID.Next()
			if s.visible(it) {
				return it.TID, it.Datum, true, nil
			}
			continue
		}

		buf, err := t.descendToLeaf(s.attno, s.cursor, bufferpool.Shared)
		if err == ErrTreeNotFound {
			return TID{}, nil, false, nil
		}
		if err != nil {
			return TID{}, nil, false, err
		}

		page := newPageView(buf)
		leaf := newLeafView(page)
		op := page.Opaque()
		n := leaf.NumItems()

		advanced := false
		for i := 0; i < n; i++ {
			raw := leaf.ReadItemBytes(i)
			if itemLastTID(raw).Less(s.cursor) {
				continue
			}
			if IsCompressedItem(raw) {
				run := DecodeCompressedRun(raw)
				dec := t.codec.DecompressChunk(run.Blob)
				for {
					it, ok := dec.Next()
					if !ok {
						break
					}
					if it.TID.Less(s.cursor) {
						continue
					}
					s.pending = append(s.pending, cloneItem(it))
				}
			} else {
				s.pending = append(s.pending, cloneItem(DecodeUncompressedItem(raw)))
			}
			advanced = true
		}

		if !advanced {
			// Nothing left on this page at or after the cursor: move to its
			// right sibling, or stop if there is none (end of tree).
			if op.Next == bufferpool.InvalidBlock {
				t.bp.Unlatch(buf)
				t.bp.Release(buf)
				return TID{}, nil, false, nil
			}
			if op.Next == buf.Block {
				t.bp.Unlatch(buf)
				t.bp.Release(buf)
				return TID{}, nil, false, newCorruptionError(buf.Block, "right-link to another page", "right-link to itself")
			}
			s.cursor = op.Hikey
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			continue
		}

		t.bp.Unlatch(buf)
		t.bp.Release(buf)
	}
}

// visible consults the VisibilityOracle for attribute 1's scans only;
// every other attribute's items are unconditionally visible (spec §4.I).
func (s *Scan) visible(it LeafItem) bool {
	if s.attno != 1 {
		return true
	}
	return s.tree.oracle.SatisfiesVisibility(it.RowHeader, it.TID, s.snapshot, nil)
}

// cloneItem copies an item's slices out of the page buffer they were
// decoded from: a scan keeps pending items around after unlatching and
// releasing that buffer back to the pool, where it may be reused for an
// unrelated page.
func cloneItem(it LeafItem) LeafItem {
	out := LeafItem{TID: it.TID}
	if it.RowHeader != nil {
		out.RowHeader = append([]byte(nil), it.RowHeader...)
	}
	out.Datum = append([]byte(nil), it.Datum...)
	return out
}

// Close releases the scan's resources. It is safe to call more than once.
func (s *Scan) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}
