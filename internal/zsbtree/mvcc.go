package zsbtree

import "github.com/kthorne/colbtree/internal/bufferpool"

// Snapshot is an opaque visibility cutoff handed to a scan or probe; the
// tree never interprets it, only forwards it to the VisibilityOracle
// (spec §5 "the tree consults an external collaborator").
type Snapshot interface{}

// DeleteDescriptor carries whatever the oracle needs to record a delete
// (e.g. the deleting transaction's id); again opaque to this package.
type DeleteDescriptor interface{}

// VisibilityOracle is consulted only for attribute 1's B-tree, the one
// that carries each row's header (spec §4.I, §5). Attribute trees other
// than 1 never call this; their scans return every item unconditionally.
type VisibilityOracle interface {
	SatisfiesVisibility(rowHeader []byte, tid TID, snapshot Snapshot, buf *bufferpool.Buffer) bool
	Delete(desc DeleteDescriptor, rowHeader []byte, tid TID, buf *bufferpool.Buffer) error
}

// AlwaysVisibleOracle is a reference VisibilityOracle for tests and the
// demo command: every row is visible, deletes are no-ops beyond reporting
// success. A real oracle would inspect rowHeader's xmin/xmax against
// snapshot the way a heap access method does.
type AlwaysVisibleOracle struct{}

func (AlwaysVisibleOracle) SatisfiesVisibility(rowHeader []byte, tid TID, snapshot Snapshot, buf *bufferpool.Buffer) bool {
	return true
}

func (AlwaysVisibleOracle) Delete(desc DeleteDescriptor, rowHeader []byte, tid TID, buf *bufferpool.Buffer) error {
	return nil
}
