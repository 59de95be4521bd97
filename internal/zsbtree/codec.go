package zsbtree

// Codec, Compressor, and Decompressor are the streaming compression
// contract component G (the leaf compressor) drives against. No pack
// example wires a compression library (see DESIGN.md's stdlib-only
// section), so these are consumed purely as interfaces; RLECodec
// (rle_codec.go) is a reference/test double, not a production compressor.
type Codec interface {
	// CompressBegin starts a new run targeting at most freeBytes of encoded
	// output, mirroring the teacher's style of sizing a buffer up front
	// rather than growing it unboundedly.
	CompressBegin(freeBytes int) Compressor
	// DecompressChunk wraps a previously finished blob for iteration.
	DecompressChunk(blob []byte) Decompressor
}

// Compressor accumulates items into one run. Add returns false once the
// run has no more room (spec §4.G "reject once the run would exceed its
// budget"); the caller then calls Finish and starts a fresh run for the
// rejected item.
type Compressor interface {
	Add(item LeafItem) bool
	Finish() []byte
}

// Decompressor yields items back out in the order they were added.
type Decompressor interface {
	Next() (LeafItem, bool)
}
