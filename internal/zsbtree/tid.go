package zsbtree

import (
	"fmt"

	"github.com/kthorne/colbtree/internal/alias/bx"
	"github.com/kthorne/colbtree/internal/bufferpool"
)

// TIDSize is the on-disk width of one TID: 4-byte block + 2-byte offset,
// encoded big-endian (internal/alias/bx.PutTID) so byte order equals TID
// order. Grounded on internal/heap.TID's (PageID uint32, Slot uint16)
// shape, generalized to the (block, offset) naming spec §3 uses.
const TIDSize = 6

// TID totally orders rows across one table: every attribute's B-tree uses
// the same TID space (spec §3).
type TID struct {
	Block  bufferpool.BlockNumber
	Offset uint16
}

// LowSentinel and HighSentinel bracket the entire key space (spec §3):
// LowSentinel is the smallest possible TID, HighSentinel the exclusive
// upper bound used as a page's hikey on the rightmost page of a level.
var (
	LowSentinel  = TID{Block: 0, Offset: 1}
	HighSentinel = TID{Block: bufferpool.InvalidBlock, Offset: 0xFFFF}

	// RightmostProbe is used by the inserter and by LastTID to land on the
	// current rightmost leaf: it compares greater than every real TID but
	// less than HighSentinel.
	RightmostProbe = TID{Block: bufferpool.InvalidBlock, Offset: 0xFFFE}
)

// Compare returns -1, 0, or 1 as t is lexicographically less than, equal
// to, or greater than other (block first, then offset).
func (t TID) Compare(other TID) int {
	if t.Block != other.Block {
		if t.Block < other.Block {
			return -1
		}
		return 1
	}
	if t.Offset != other.Offset {
		if t.Offset < other.Offset {
			return -1
		}
		return 1
	}
	return 0
}

func (t TID) Less(other TID) bool    { return t.Compare(other) < 0 }
func (t TID) LessEq(other TID) bool  { return t.Compare(other) <= 0 }
func (t TID) Equal(other TID) bool   { return t.Compare(other) == 0 }
func (t TID) Greater(other TID) bool { return t.Compare(other) > 0 }

// Next returns t+1, rolling the offset into the block as spec §3 requires
// ("Increment is lexicographic (offset rolls into block)").
func (t TID) Next() TID {
	if t.Offset == 0xFFFF {
		return TID{Block: t.Block + 1, Offset: 0}
	}
	return TID{Block: t.Block, Offset: t.Offset + 1}
}

func (t TID) String() string {
	return fmt.Sprintf("(%d,%d)", t.Block, t.Offset)
}

// PutTID encodes t into b[0:TIDSize].
func PutTID(b []byte, t TID) {
	bx.PutTID(b, t.Block, t.Offset)
}

// GetTID decodes a TID from b[0:TIDSize].
func GetTID(b []byte) TID {
	block, offset := bx.GetTID(b)
	return TID{Block: block, Offset: offset}
}
