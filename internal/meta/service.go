// Package meta is the reference metapage service the zsbtree core consumes
// through the Service interface (spec §6: "Metapage service"). It maps
// attno -> root block number for one table and is, per spec, the
// serialization point for root-pointer updates: Lock/Unlock play the role
// of "the metapage latch is always acquired last" (spec §5).
package meta

import "github.com/kthorne/colbtree/internal/bufferpool"

// Service is the external collaborator the zsbtree Tree consults to find
// and update each attribute's root block.
type Service interface {
	// GetRoot returns the current root block for attno. If none exists yet,
	// ok is false whatever createIfMissing says: creation of the initial
	// leaf root is the caller's job (spec §3 "Lifecycle"), which allocates
	// the page and then records it with UpdateRoot. Callers
	// that intend to follow a miss with UpdateRoot must hold the metapage
	// latch (Lock) across both calls to keep the check-then-act atomic.
	GetRoot(attno int, createIfMissing bool) (root bufferpool.BlockNumber, ok bool, err error)

	// UpdateRoot records newRoot as attno's root. The caller must hold the
	// metapage latch (Lock) for the duration of the read-modify-write that
	// produced newRoot.
	UpdateRoot(attno int, newRoot bufferpool.BlockNumber) error

	// Lock/Unlock serialize root-pointer changes across attributes and
	// goroutines, standing in for latching the real metapage buffer.
	Lock()
	Unlock()
}
