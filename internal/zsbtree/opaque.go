package zsbtree

import (
	"github.com/kthorne/colbtree/internal/alias/bx"
	"github.com/kthorne/colbtree/internal/bufferpool"
)

// pageMagic tags every page this package owns, the ZS_BTREE_PAGE_ID
// equivalent from spec §6 ("All B-tree pages carry the ... magic in the
// opaque tail to distinguish from other page kinds").
const pageMagic uint32 = 0x5A534254 // "ZSBT"

// Opaque trailer flag bits (spec §3 "flags").
const (
	flagFollowRight uint16 = 1 << 0
)

// opaqueSize is the fixed trailer width: lokey(6) + hikey(6) + next(4) +
// level(2) + flags(2) + magic(4) = 24 bytes.
const opaqueSize = TIDSize + TIDSize + 4 + 2 + 2 + 4

// opaque mirrors spec §3's per-page trailer: lokey/hikey bounds, the
// right-sibling link, the page's level, FOLLOW_RIGHT, and the page-kind
// magic. It is a value type copied out of / written back into the last
// opaqueSize bytes of a page, the way the teacher treats storage.Page as a
// thin view over a borrowed []byte.
type opaque struct {
	Lokey TID
	Hikey TID
	Next  bufferpool.BlockNumber
	Level uint16
	Flags uint16
}

func readOpaque(buf []byte) opaque {
	o := buf[len(buf)-opaqueSize:]
	return opaque{
		Lokey: GetTID(o[0:6]),
		Hikey: GetTID(o[6:12]),
		Next:  bx.U32(o[12:16]),
		Level: bx.U16(o[16:18]),
		Flags: bx.U16(o[18:20]),
	}
}

func writeOpaque(buf []byte, o opaque) {
	out := buf[len(buf)-opaqueSize:]
	PutTID(out[0:6], o.Lokey)
	PutTID(out[6:12], o.Hikey)
	bx.PutU32(out[12:16], o.Next)
	bx.PutU16(out[16:18], o.Level)
	bx.PutU16(out[18:20], o.Flags)
	bx.PutU32(out[20:24], pageMagic)
}

func readMagic(buf []byte) uint32 {
	o := buf[len(buf)-opaqueSize:]
	return bx.U32(o[20:24])
}

func (o opaque) followRight() bool { return o.Flags&flagFollowRight != 0 }
func (o *opaque) setFollowRight()  { o.Flags |= flagFollowRight }
func (o *opaque) clearFollowRight() {
	// spec.md §9 open question: the original clears this with
	// `flags &= ZS_FOLLOW_RIGHT` (a bug — it ANDs with the flag instead of
	// its complement). The resolved, correct behavior specified here is
	// `&^=` (Go's bit-clear), matching insert_downlink/split_internal's
	// surrounding logic.
	o.Flags &^= flagFollowRight
}

func (o opaque) isLeaf() bool { return o.Level == 0 }
