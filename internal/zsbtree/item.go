package zsbtree

import "github.com/kthorne/colbtree/internal/alias/bx"

// Per-item flag bits (spec §3 "Leaf item (two forms)"). These live inside
// the encoded item bytes themselves, distinct from the opaque trailer's
// page-level flags and from the still-unused itemFlags slot word leaf
// pages reserve per line pointer.
const (
	itemFlagCompressed uint8 = 1 << 0
)

// itemHeaderHalf is the fixed prefix shared by both item forms: a 1-byte
// flags tag followed by the item's payload-defining TID range. Uncompressed
// items only ever populate the "first" TID (their single tid); compressed
// runs populate both first and last.
const itemHeaderHalf = 1 + TIDSize

// LeafItem is the in-memory form of one uncompressed leaf entry: a single
// row's TID plus the attribute datum bytes, and for attribute 1 only, the
// row header the visibility oracle inspects (spec §3, §4.I).
type LeafItem struct {
	TID       TID
	RowHeader []byte // nil for attno != 1
	Datum     []byte
}

// EncodeUncompressedItem lays out flags(1) | tid(6) | rowHeaderLen(2) |
// rowHeader | datum. rowHeaderLen is 0 when RowHeader is nil.
func EncodeUncompressedItem(it LeafItem) []byte {
	out := make([]byte, itemHeaderHalf+2+len(it.RowHeader)+len(it.Datum))
	out[0] = 0
	PutTID(out[1:1+TIDSize], it.TID)
	o := itemHeaderHalf
	bx.PutU16(out[o:o+2], uint16(len(it.RowHeader)))
	o += 2
	o += copy(out[o:], it.RowHeader)
	copy(out[o:], it.Datum)
	return out
}

// IsCompressedItem reports the tag byte of an encoded item without fully
// decoding it; used by the scan driver and delete-probe to choose between
// the uncompressed and compressed decode paths.
func IsCompressedItem(b []byte) bool {
	return len(b) > 0 && b[0]&itemFlagCompressed != 0
}

// DecodeUncompressedItem reverses EncodeUncompressedItem. The returned
// slices alias b; callers that retain them past the page's lifetime must
// copy.
func DecodeUncompressedItem(b []byte) LeafItem {
	tid := GetTID(b[1 : 1+TIDSize])
	o := itemHeaderHalf
	rhLen := int(bx.U16(b[o : o+2]))
	o += 2
	var rh []byte
	if rhLen > 0 {
		rh = b[o : o+rhLen]
		o += rhLen
	}
	return LeafItem{TID: tid, RowHeader: rh, Datum: b[o:]}
}

// CompressedRun is the decoded form of a compressed item: the TID range it
// covers plus the opaque codec blob (spec §3 "Compressed run").
type CompressedRun struct {
	FirstTID TID
	LastTID  TID
	Blob     []byte
}

// EncodeCompressedRun lays out flags(1) | first_tid(6) | last_tid(6) | blob.
func EncodeCompressedRun(run CompressedRun) []byte {
	out := make([]byte, 1+TIDSize+TIDSize+len(run.Blob))
	out[0] = itemFlagCompressed
	PutTID(out[1:1+TIDSize], run.FirstTID)
	PutTID(out[1+TIDSize:1+2*TIDSize], run.LastTID)
	copy(out[1+2*TIDSize:], run.Blob)
	return out
}

func DecodeCompressedRun(b []byte) CompressedRun {
	first := GetTID(b[1 : 1+TIDSize])
	last := GetTID(b[1+TIDSize : 1+2*TIDSize])
	return CompressedRun{FirstTID: first, LastTID: last, Blob: b[1+2*TIDSize:]}
}

// itemFirstTID returns the TID an item sorts by, without fully decoding it:
// an uncompressed item's own tid, or a compressed run's first_tid. Used by
// binsrch-over-leaf-items style lookups (delete_probe, scan resume).
func itemFirstTID(b []byte) TID {
	return GetTID(b[1 : 1+TIDSize])
}

// itemLastTID returns the TID that would need to precede a scan cursor to
// skip this item entirely: itself for uncompressed items, last_tid for a
// compressed run.
func itemLastTID(b []byte) TID {
	if IsCompressedItem(b) {
		return GetTID(b[1+TIDSize : 1+2*TIDSize])
	}
	return itemFirstTID(b)
}
