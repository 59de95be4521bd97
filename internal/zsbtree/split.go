package zsbtree

import (
	"fmt"

	"github.com/kthorne/colbtree/internal/bufferpool"
)

// internalSplitRightShare is the fraction of downlinks that move to the
// new right sibling on an internal split. Spec §4.F biases splits 90/10
// rather than 50/50: append-heavy insertion keeps hammering the rightmost
// path, so leaving the left page nearly full avoids immediately
// re-splitting it while the thin right page absorbs new growth.
const internalSplitRightShare = 10

// splitLeaf carves the current rightmost row-block off buf's leaf page
// into a brand new, empty right sibling. Per the resolved open question on
// the split boundary (DESIGN.md): because insertion is strictly
// rightmost-append, a full leaf's next TID always starts a fresh block
// number, so the new sibling's lokey is simply (this page's lokey block +
// 1, 1) — there is never an existing item to redistribute.
func (t *Tree) splitLeaf(buf *bufferpool.Buffer) (rightBlock bufferpool.BlockNumber, splitKey TID, err error) {
	leftPage := newPageView(buf)
	leftOp := leftPage.Opaque()

	splitKey = TID{Block: leftOp.Lokey.Block + 1, Offset: 1}

	newBuf, newBlock, err := t.bp.NewPage()
	if err != nil {
		return 0, TID{}, err
	}
	t.bp.Latch(newBuf, bufferpool.Exclusive)
	rightPage := newPageView(newBuf)
	rightPage.initPage(newBlock, leftOp.Level, splitKey, leftOp.Hikey, leftOp.Next, 0)
	t.bp.MarkDirty(newBuf)
	t.bp.Unlatch(newBuf)
	t.bp.Release(newBuf)

	leftOp.Hikey = splitKey
	leftOp.Next = newBlock
	leftOp.setFollowRight()
	leftPage.SetOpaque(leftOp)
	t.bp.MarkDirty(buf)

	return newBlock, splitKey, nil
}

// splitInternal divides buf's downlinks 90/10 (left/right) into a new
// right sibling, the same incomplete-split protocol as splitLeaf: the left
// page's hikey/next/FOLLOW_RIGHT are updated to point at the new page
// before any parent downlink exists, so a concurrent descender that lands
// on the left page still finds its way to the right one via the
// right-link (spec §4.D/§4.F).
func (t *Tree) splitInternal(buf *bufferpool.Buffer) (rightBlock bufferpool.BlockNumber, splitKey TID, err error) {
	page := newPageView(buf)
	op := page.Opaque()
	iv := newInternalView(page)
	entries := iv.allEntries()
	n := len(entries)

	rightCount := n / internalSplitRightShare
	if rightCount < 1 {
		rightCount = 1
	}
	splitAt := n - rightCount
	if splitAt < 1 {
		splitAt = 1
	}
	leftEntries := entries[:splitAt]
	rightEntries := entries[splitAt:]
	splitKey = rightEntries[0].TID

	newBuf, newBlock, err := t.bp.NewPage()
	if err != nil {
		return 0, TID{}, err
	}
	t.bp.Latch(newBuf, bufferpool.Exclusive)
	rightPage := newPageView(newBuf)
	rightPage.initPage(newBlock, op.Level, splitKey, op.Hikey, op.Next, 0)
	newInternalView(rightPage).RebuildFrom(rightEntries)
	t.bp.MarkDirty(newBuf)
	t.bp.Unlatch(newBuf)
	t.bp.Release(newBuf)

	iv.RebuildFrom(leftEntries)
	op.Hikey = splitKey
	op.Next = newBlock
	op.setFollowRight()
	page.SetOpaque(op)
	t.bp.MarkDirty(buf)

	return newBlock, splitKey, nil
}

// propagateSplit inserts the downlink for a freshly split page one level
// up, or installs a brand new root if the page that split was itself the
// root (spec §4.F "recursive bottom-up split propagation with a
// metapage-stored root pointer").
func (t *Tree) propagateSplit(attno int, level int, splitKey TID, rightBlock, leftBlock bufferpool.BlockNumber) error {
	root, err := t.getRootBlock(attno)
	if err != nil {
		return err
	}
	if root == leftBlock {
		return t.newRoot(attno, level+1, splitKey, rightBlock, leftBlock)
	}
	return t.insertDownlink(attno, level+1, splitKey, rightBlock, leftBlock)
}

// insertDownlink places (splitKey, childBlock) into the level-`level`
// ancestor that currently covers splitKey, splitting and recursing further
// up if that ancestor has no room. leftBlock is the page whose split this
// downlink completes: once the downlink lands, leftBlock's FOLLOW_RIGHT is
// cleared (spec §4.F step 3) since a descender no longer needs the
// right-link to find rightBlock, the parent now has its own route there.
func (t *Tree) insertDownlink(attno int, level int, splitKey TID, childBlock, leftBlock bufferpool.BlockNumber) error {
	leftLokey, err := t.readLokey(leftBlock)
	if err != nil {
		return err
	}

	parentBuf, err := t.findDownlink(attno, splitKey, level)
	if err != nil {
		return err
	}
	page := newPageView(parentBuf)
	iv := newInternalView(page)

	if iv.Fits(1) {
		idx := BinsrchInternal(splitKey, iv)
		if idx < 0 {
			t.bp.Unlatch(parentBuf)
			t.bp.Release(parentBuf)
			return newCorruptionError(page.PageID(), "binsrch_internal result", "-1")
		}
		gotTID, gotChild := iv.EntryAt(idx)
		if !gotTID.Equal(leftLokey) || gotChild != leftBlock {
			t.bp.Unlatch(parentBuf)
			t.bp.Release(parentBuf)
			return newCorruptionError(page.PageID(),
				fmt.Sprintf("downlink (%v,%v)", leftLokey, leftBlock),
				fmt.Sprintf("(%v,%v)", gotTID, gotChild))
		}
		iv.InsertEntryAt(idx+1, splitKey, childBlock)
		t.bp.MarkDirty(parentBuf)
		t.bp.Unlatch(parentBuf)
		t.bp.Release(parentBuf)
		return t.clearFollowRightOn(leftBlock)
	}

	parentBlock := page.PageID()
	rightBlock, rightSplitKey, err := t.splitInternal(parentBuf)
	t.bp.Unlatch(parentBuf)
	t.bp.Release(parentBuf)
	if err != nil {
		return err
	}
	if err := t.propagateSplit(attno, level, rightSplitKey, rightBlock, parentBlock); err != nil {
		return err
	}
	return t.insertDownlink(attno, level, splitKey, childBlock, leftBlock)
}

// readLokey fetches block's current lokey under a shared latch.
func (t *Tree) readLokey(block bufferpool.BlockNumber) (TID, error) {
	buf, err := t.bp.ReadPage(block)
	if err != nil {
		return TID{}, err
	}
	t.bp.Latch(buf, bufferpool.Shared)
	lokey := newPageView(buf).Opaque().Lokey
	t.bp.Unlatch(buf)
	t.bp.Release(buf)
	return lokey, nil
}

// clearFollowRightOn clears FOLLOW_RIGHT on block once its parent's
// downlink to its right sibling is installed (spec §4.F step 3); until
// then the flag is what lets a concurrent descender still find the right
// sibling via the right-link instead of a downlink that doesn't exist yet.
func (t *Tree) clearFollowRightOn(block bufferpool.BlockNumber) error {
	buf, err := t.bp.ReadPage(block)
	if err != nil {
		return err
	}
	t.bp.Latch(buf, bufferpool.Exclusive)
	page := newPageView(buf)
	op := page.Opaque()
	op.clearFollowRight()
	page.SetOpaque(op)
	t.bp.MarkDirty(buf)
	t.bp.Unlatch(buf)
	t.bp.Release(buf)
	return nil
}

// newRoot builds a fresh level-`level` root with two downlinks: one to the
// old root (now just another page) and one to its new right sibling, and
// swaps the metapage's root pointer (spec §4.F newroot, §5 metapage
// latch).
func (t *Tree) newRoot(attno int, level int, splitKey TID, rightBlock, leftBlock bufferpool.BlockNumber) error {
	leftBuf, err := t.bp.ReadPage(leftBlock)
	if err != nil {
		return err
	}
	t.bp.Latch(leftBuf, bufferpool.Shared)
	leftLokey := newPageView(leftBuf).Opaque().Lokey
	t.bp.Unlatch(leftBuf)
	t.bp.Release(leftBuf)

	newBuf, newBlock, err := t.bp.NewPage()
	if err != nil {
		return err
	}
	t.bp.Latch(newBuf, bufferpool.Exclusive)
	page := newPageView(newBuf)
	page.initPage(newBlock, uint16(level), LowSentinel, HighSentinel, bufferpool.InvalidBlock, 0)
	iv := newInternalView(page)
	iv.AppendEntry(leftLokey, leftBlock)
	iv.AppendEntry(splitKey, rightBlock)
	t.bp.MarkDirty(newBuf)
	t.bp.Unlatch(newBuf)
	t.bp.Release(newBuf)

	t.meta.Lock()
	err = t.meta.UpdateRoot(attno, newBlock)
	t.meta.Unlock()
	if err != nil {
		return err
	}
	return t.clearFollowRightOn(leftBlock)
}
