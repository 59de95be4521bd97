package zsbtree

import "github.com/kthorne/colbtree/internal/alias/bx"

// LeafView interprets a Page's item region as a line-pointer directory plus
// a tuple area growing down from the top, exactly like the teacher's
// internal/storage.Page (Lower/Upper/GetSlot/PutSlot/appendSlot), restricted
// here to append-only growth since the insertion policy (spec §4.E) is
// always rightmost and splits/compression rebuild the page from scratch
// rather than shifting slots in place.
type LeafView struct {
	Page
}

func newLeafView(p Page) LeafView { return LeafView{Page: p} }

func (v LeafView) NumItems() int {
	return (v.Lower() - headerSize) / slotSize
}

func (v LeafView) slotAt(i int) int { return headerSize + i*slotSize }

func (v LeafView) getSlot(i int) (offset, length int) {
	o := v.slotAt(i)
	return int(bx.U16(v.buf[o : o+2])), int(bx.U16(v.buf[o+2 : o+4]))
}

func (v LeafView) putSlot(i, offset, length int) {
	o := v.slotAt(i)
	bx.PutU16(v.buf[o:o+2], uint16(offset))
	bx.PutU16(v.buf[o+2:o+4], uint16(length))
	bx.PutU16(v.buf[o+4:o+6], 0)
}

// FreeSpace is the number of bytes available for a new item plus its slot
// entry (spec §4.A: "free_space(page) >= align(item.size)").
func (v LeafView) FreeSpace() int {
	return v.Upper() - v.Lower()
}

// Fits reports whether an item of itemSize bytes can be appended.
func (v LeafView) Fits(itemSize int) bool {
	return v.FreeSpace() >= align(itemSize)+slotSize
}

// ReadItemBytes returns the raw encoded item at slot i (see item.go for
// the encoding).
func (v LeafView) ReadItemBytes(i int) []byte {
	offset, length := v.getSlot(i)
	return v.buf[offset : offset+length]
}

// AppendItemBytes appends data as a new rightmost item, returning its slot
// index. The caller is responsible for ensuring Fits(len(data)) first.
func (v LeafView) AppendItemBytes(data []byte) int {
	newUpper := v.Upper() - align(len(data))
	copy(v.buf[newUpper:newUpper+len(data)], data)
	slot := v.NumItems()
	v.putSlot(slot, newUpper, len(data))
	v.setUpper(newUpper)
	v.setLower(v.Lower() + slotSize)
	return slot
}

// RebuildFrom clears the page's item region and re-appends items in order,
// used by the splitter (component F) and compressor (component G), both of
// which build a whole replacement page rather than mutating slots in
// place.
func (v LeafView) RebuildFrom(items [][]byte) {
	v.setLower(headerSize)
	v.setUpper(v.opaqueStart())
	for _, it := range items {
		v.AppendItemBytes(it)
	}
}
