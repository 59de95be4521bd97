package zsbtree

import (
	"fmt"

	"github.com/kthorne/colbtree/internal/bufferpool"
)

// getRootBlock resolves attno's current root under the metapage latch
// (spec §5 "the metapage's latch serializes root lookups and swaps").
func (t *Tree) getRootBlock(attno int) (bufferpool.BlockNumber, error) {
	t.meta.Lock()
	defer t.meta.Unlock()
	root, ok, err := t.meta.GetRoot(attno, false)
	if err != nil {
		return 0, err
	}
	if !ok {
		return bufferpool.InvalidBlock, ErrTreeNotFound
	}
	return root, nil
}

// descendToLevel is the shared engine behind every entry point that needs
// to land on a particular page: descendToLeaf (stopLevel 0) and
// findDownlink (stopLevel = the split child's parent level). It implements
// crabbed concurrent descent (spec §4.D): at each page, first check
// whether the search key has moved out from under the downlink that led
// here — either because the page is mid-split (FOLLOW_RIGHT still set) or
// because its hikey no longer covers the key — and if so follow the
// right-link instead of descending further. Note this never decrements
// the level we are hunting for: following a right-link is a sideways move
// at the same level, exactly spec §4.D's "incomplete split recovery."
func (t *Tree) descendToLevel(attno int, key TID, stopLevel int, mode bufferpool.LatchMode) (*bufferpool.Buffer, error) {
	block, err := t.getRootBlock(attno)
	if err != nil {
		return nil, err
	}

	// expectedLevel tracks the level a downward hop must land on (spec
	// §4.D step 2); -1 means unconstrained, which only holds for the root
	// page on the very first iteration. A right-link hop is sideways, not
	// downward, and leaves it unchanged.
	expectedLevel := -1

	for {
		buf, err := t.bp.ReadPage(block)
		if err != nil {
			return nil, err
		}
		t.bp.Latch(buf, bufferpool.Shared)

		page := newPageView(buf)
		if page.Magic() != pageMagic {
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return nil, newCorruptionError(block, "zsbtree page magic", fmt.Sprintf("0x%x", page.Magic()))
		}
		op := page.Opaque()

		if expectedLevel >= 0 && int(op.Level) != expectedLevel {
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return nil, newCorruptionError(block, fmt.Sprintf("page level %d", expectedLevel), fmt.Sprintf("%d", op.Level))
		}

		if (op.followRight() || op.Hikey.LessEq(key)) && op.Next != bufferpool.InvalidBlock {
			next := op.Next
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			block = next
			continue
		}

		if int(op.Level) == stopLevel {
			if mode == bufferpool.Exclusive {
				t.bp.Unlatch(buf)
				t.bp.Latch(buf, bufferpool.Exclusive)
				// Re-check after the latch upgrade: another inserter may have
				// split this exact page while we held no latch at all.
				op = page.Opaque()
				if (op.followRight() || op.Hikey.LessEq(key)) && op.Next != bufferpool.InvalidBlock {
					next := op.Next
					t.bp.Unlatch(buf)
					t.bp.Release(buf)
					block = next
					continue
				}
			}
			return buf, nil
		}

		iv := newInternalView(page)
		idx := BinsrchInternal(key, iv)
		if idx < 0 {
			t.bp.Unlatch(buf)
			t.bp.Release(buf)
			return nil, newCorruptionError(block, "binsrch_internal result", "-1")
		}
		_, child := iv.EntryAt(idx)
		expectedLevel = int(op.Level) - 1
		t.bp.Unlatch(buf)
		t.bp.Release(buf)
		block = child
	}
}

// descendToLeaf lands on the leaf page that should contain key, latched in
// mode.
func (t *Tree) descendToLeaf(attno int, key TID, mode bufferpool.LatchMode) (*bufferpool.Buffer, error) {
	return t.descendToLevel(attno, key, 0, mode)
}

// findDownlink lands, exclusively latched, on the level-`level` page whose
// downlink range currently covers key — used by split propagation
// (component F) to locate the parent a new right sibling's downlink must
// be inserted into.
func (t *Tree) findDownlink(attno int, key TID, level int) (*bufferpool.Buffer, error) {
	return t.descendToLevel(attno, key, level, bufferpool.Exclusive)
}
