package zsbtree

import (
	"errors"
	"fmt"

	"github.com/kthorne/colbtree/internal/bufferpool"
)

// Sentinel errors (spec §7), grounded on the teacher's var-block-of-errors
// style (e.g. internal/btree's ErrKeyNotFound, internal/wal's ErrCorrupt).
var (
	// ErrItemTooLarge is returned when a single encoded item, even alone on
	// an empty page, would not fit (spec §7 "oversized datums are rejected
	// fatally; there is no toast/overflow store").
	ErrItemTooLarge = errors.New("zsbtree: item exceeds maximum page capacity")

	// ErrTreeNotFound is returned by GetRoot-backed lookups when an
	// attribute has no root yet and the caller did not ask to create one.
	ErrTreeNotFound = errors.New("zsbtree: no root page for attribute")

	// ErrScanClosed is returned by Scan.Next after Scan.Close.
	ErrScanClosed = errors.New("zsbtree: scan already closed")
)

// CorruptionError reports a structural inconsistency discovered while
// reading a page: wrong magic, a level that does not match the expected
// descent depth, an internal page with no downlink covering the key, a
// parent downlink that does not match the page being split, or a
// right-link that points back at its own page. Spec §7 asks for "a distinct
// error shape from ordinary not-found conditions, naming the offending
// block and what was expected."
type CorruptionError struct {
	Block    bufferpool.BlockNumber
	Expected string
	Got      string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("zsbtree: corrupt page %d: expected %s, got %s", e.Block, e.Expected, e.Got)
}

func newCorruptionError(block bufferpool.BlockNumber, expected, got string) error {
	return &CorruptionError{Block: block, Expected: expected, Got: got}
}
