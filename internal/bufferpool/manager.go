// Package bufferpool is the reference buffer manager the zsbtree package
// consumes through the Manager interface (spec §6: "Buffer manager").
// Production deployments are expected to swap Pool for a real shared
// buffer manager with write-ahead logging; the interface is the contract,
// not this implementation.
package bufferpool

// BlockNumber identifies a page within one FileSet. InvalidBlock plays the
// role of PostgreSQL's InvalidBlockNumber: "no such page" and, doubled up
// per spec §3, the block half of the TID high sentinel.
type BlockNumber = uint32

const InvalidBlock BlockNumber = 0xFFFFFFFF

// LatchMode is the mode a caller acquires a page latch in. The zsbtree core
// crabs down with Shared latches for scans and probes, upgrading to
// Exclusive only on the page it actually intends to mutate (spec §5).
type LatchMode int

const (
	Shared LatchMode = iota
	Exclusive
)

// Manager is the buffer manager interface the zsbtree core consumes.
// Grounded on internal/bufferpool.Manager in the teacher repo, extended
// with explicit Latch/Unlatch to carry shared/exclusive mode per spec §5,
// and ReleaseAndRead for the descender's common "release here, read next,
// relatch" step (spec §4.D step 3).
type Manager interface {
	// ReadPage pins and returns the page for block, loading it from disk
	// (or the pool) if necessary. The caller must Latch before touching
	// the page contents and Release when done with it.
	ReadPage(block BlockNumber) (*Buffer, error)

	// NewPage allocates a fresh block number and returns it already pinned
	// and zero-filled.
	NewPage() (*Buffer, BlockNumber, error)

	Latch(buf *Buffer, mode LatchMode)
	Unlatch(buf *Buffer)

	// MarkDirty flags buf to be written back on the next FlushAll/eviction.
	MarkDirty(buf *Buffer)

	// Release unpins buf. The caller must have already called Unlatch.
	Release(buf *Buffer)

	// ReleaseAndRead releases buf and pins+returns block in one call.
	ReleaseAndRead(buf *Buffer, block BlockNumber) (*Buffer, error)

	FlushAll() error
}
