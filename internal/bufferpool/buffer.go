package bufferpool

import (
	"sync"

	"github.com/kthorne/colbtree/internal/storage"
)

// Buffer is a pinned, in-memory copy of one page. Bytes is exactly
// storage.PageSize long; callers (the zsbtree page layout) read and write
// it directly, the way the teacher's code hands out *storage.Page values.
//
// Latch plays the role the teacher's internal/lock.RefCount doc comment
// already names it: "a latch it just a lock but in database terminology".
type Buffer struct {
	Block BlockNumber
	Bytes []byte

	latch sync.RWMutex
	mode  LatchMode

	mu    sync.Mutex // protects pin/dirty bookkeeping below
	pin   int32
	dirty bool
}

func newBuffer(block BlockNumber) *Buffer {
	return &Buffer{Block: block, Bytes: make([]byte, storage.PageSize)}
}

func (b *Buffer) incPin() {
	b.mu.Lock()
	b.pin++
	b.mu.Unlock()
}

func (b *Buffer) decPin() {
	b.mu.Lock()
	if b.pin > 0 {
		b.pin--
	}
	b.mu.Unlock()
}

func (b *Buffer) pinCount() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pin
}

func (b *Buffer) setDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

func (b *Buffer) isDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

func (b *Buffer) clearDirty() {
	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()
}
