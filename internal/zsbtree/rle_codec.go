package zsbtree

import "github.com/kthorne/colbtree/internal/alias/bx"

// RLECodec is a reference Codec implementation used by tests and the demo
// command. It is deliberately simple: each run is a literal concatenation
// of encoded items length-prefixed with a count, with no entropy coding.
// No example repo in the pack imports a real compression library (see
// DESIGN.md), so this stands in for "some external streaming codec" the
// way the teacher's own test doubles stand in for a real network peer.
type RLECodec struct{}

type rleCompressor struct {
	budget int
	used   int
	items  []LeafItem
}

func (RLECodec) CompressBegin(freeBytes int) Compressor {
	return &rleCompressor{budget: freeBytes}
}

func (c *rleCompressor) Add(item LeafItem) bool {
	size := itemHeaderHalf + 2 + len(item.RowHeader) + len(item.Datum)
	if c.used+size > c.budget && len(c.items) > 0 {
		return false
	}
	c.items = append(c.items, item)
	c.used += size
	return true
}

func (c *rleCompressor) Finish() []byte {
	out := make([]byte, 4)
	bx.PutU32(out, uint32(len(c.items)))
	for _, it := range c.items {
		enc := EncodeUncompressedItem(it)
		lenBuf := make([]byte, 4)
		bx.PutU32(lenBuf, uint32(len(enc)))
		out = append(out, lenBuf...)
		out = append(out, enc...)
	}
	return out
}

type rleDecompressor struct {
	blob []byte
	pos  int
	left int
}

func (RLECodec) DecompressChunk(blob []byte) Decompressor {
	n := bx.U32(blob[0:4])
	return &rleDecompressor{blob: blob, pos: 4, left: int(n)}
}

func (d *rleDecompressor) Next() (LeafItem, bool) {
	if d.left == 0 {
		return LeafItem{}, false
	}
	n := int(bx.U32(d.blob[d.pos : d.pos+4]))
	d.pos += 4
	enc := d.blob[d.pos : d.pos+n]
	d.pos += n
	d.left--
	return DecodeUncompressedItem(enc), true
}
