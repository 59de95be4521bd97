package zsbtree

import (
	"fmt"

	"github.com/kthorne/colbtree/internal/alias/bx"
	"github.com/kthorne/colbtree/internal/bufferpool"
)

// Page header layout, grounded on the teacher's internal/storage.Page
// (Lower()/Upper()/NumSlots()/appendSlot() idiom), extended with the fixed
// opaque trailer spec §3 requires:
//
//	+------------------+ 0
//	| flags (2)        |
//	| pageID (4)       |
//	| pdLower (2)      |
//	| pdUpper (2)      |
//	| reserved (6)     |
//	+------------------+ headerSize (16)
//	| item region      |   leaves: line-pointer dir growing up to pdLower,
//	|                  |           tuple bytes growing down from pdUpper.
//	|                  |   internal: flat (tid,child) array up to pdLower,
//	|                  |             pdUpper pinned at opaqueStart.
//	+------------------+ pdUpper / opaqueStart
//	| opaque trailer   |   (opaqueSize bytes, see opaque.go)
//	+------------------+ PageSize
const (
	headerSize = 16
	slotSize   = 6 // (offset uint16, length uint16, itemFlags uint16), leaf line pointers only
)

// align rounds n up to the machine-word alignment the page service uses
// for free-space accounting (spec §4.A).
func align(n int) int {
	const word = 8
	return (n + word - 1) &^ (word - 1)
}

// Page is a thin, mutable view over one bufferpool.Buffer's bytes. It owns
// no memory itself, the way the teacher's storage.Page wraps a borrowed
// []byte (see spec §9 "Implement pages as value types over a borrowed byte
// buffer; node identity is the block number").
type Page struct {
	buf []byte
}

func newPageView(buf *bufferpool.Buffer) Page {
	return Page{buf: buf.Bytes}
}

func (p Page) opaqueStart() int { return len(p.buf) - opaqueSize }

func (p Page) flags() uint16     { return bx.U16(p.buf[0:2]) }
func (p Page) setFlags(v uint16) { bx.PutU16(p.buf[0:2], v) }

func (p Page) PageID() bufferpool.BlockNumber { return bx.U32(p.buf[2:6]) }
func (p Page) setPageID(id bufferpool.BlockNumber) {
	bx.PutU32(p.buf[2:6], id)
}

func (p Page) Lower() int      { return int(bx.U16(p.buf[6:8])) }
func (p Page) setLower(v int)  { bx.PutU16(p.buf[6:8], uint16(v)) }
func (p Page) Upper() int      { return int(bx.U16(p.buf[8:10])) }
func (p Page) setUpper(v int)  { bx.PutU16(p.buf[8:10], uint16(v)) }

func (p Page) Opaque() opaque { return readOpaque(p.buf) }
func (p Page) SetOpaque(o opaque) {
	writeOpaque(p.buf, o)
}

// Magic returns the page-kind tag; a mismatch after reading a block from
// disk indicates corruption (spec §7).
func (p Page) Magic() uint32 { return readMagic(p.buf) }

// IsLeaf reports whether this page's opaque level marks it a leaf (level 0).
func (p Page) IsLeaf() bool { return p.Opaque().isLeaf() }

// initPage resets the whole page and installs a fresh opaque trailer.
// pdUpper starts at opaqueStart for every level: on a leaf that is the top
// of the tuple region, on an internal page it stays there.
func (p Page) initPage(pageID bufferpool.BlockNumber, level uint16, lokey, hikey TID, next bufferpool.BlockNumber, flags uint16) {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.setFlags(0)
	p.setPageID(pageID)
	p.setLower(headerSize)
	p.setUpper(p.opaqueStart())
	p.SetOpaque(opaque{Lokey: lokey, Hikey: hikey, Next: next, Level: level, Flags: flags})
}

func (p Page) String() string {
	o := p.Opaque()
	return fmt.Sprintf("Page{id=%d level=%d lokey=%s hikey=%s next=%d followRight=%v}",
		p.PageID(), o.Level, o.Lokey, o.Hikey, o.Next, o.followRight())
}
