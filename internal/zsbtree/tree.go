package zsbtree

import (
	"log/slog"

	"github.com/kthorne/colbtree/internal/bufferpool"
	"github.com/kthorne/colbtree/internal/meta"
)

// Tree is the per-table façade over one or more attribute B-trees sharing
// a buffer pool, metapage service, compression codec, and visibility
// oracle (spec §6). Each attno is an independent tree; Tree itself is
// stateless beyond its collaborators, mirroring the teacher's habit of
// keeping the top-level type a thin composition of its stores.
type Tree struct {
	bp     bufferpool.Manager
	meta   meta.Service
	codec  Codec
	oracle VisibilityOracle
	log    *slog.Logger
}

// Open wires a Tree over already-constructed collaborators; it performs
// no I/O itself.
func Open(bp bufferpool.Manager, ms meta.Service, codec Codec, oracle VisibilityOracle) *Tree {
	return &Tree{
		bp:     bp,
		meta:   ms,
		codec:  codec,
		oracle: oracle,
		log:    slog.Default().With("component", "zsbtree"),
	}
}

// ensureRoot creates an empty leaf root for attno on first use. Spec §4.E:
// "a tree with no rows yet is a single empty leaf page acting as its own
// root."
func (t *Tree) ensureRoot(attno int) error {
	t.meta.Lock()
	_, ok, err := t.meta.GetRoot(attno, false)
	if err != nil {
		t.meta.Unlock()
		return err
	}
	if ok {
		t.meta.Unlock()
		return nil
	}
	t.meta.Unlock()

	buf, block, err := t.bp.NewPage()
	if err != nil {
		return err
	}
	t.bp.Latch(buf, bufferpool.Exclusive)
	page := newPageView(buf)
	page.initPage(block, 0, LowSentinel, HighSentinel, bufferpool.InvalidBlock, 0)
	t.bp.MarkDirty(buf)
	t.bp.Unlatch(buf)
	t.bp.Release(buf)

	t.meta.Lock()
	defer t.meta.Unlock()
	// Another goroutine may have raced us to create the root; whichever
	// update lands first wins, the loser's empty leaf is simply orphaned
	// (spec §7 notes orphaned pages are a known, benign cost of lock-free
	// root creation and are reclaimed by an out-of-scope vacuum process).
	_, ok, err = t.meta.GetRoot(attno, false)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return t.meta.UpdateRoot(attno, block)
}
