package zsbtree

import "sort"

// compressLeafItems is component G: opportunistically batch a leaf's
// uncompressed items into one or more compressed runs to reclaim space
// before resorting to a split (spec §4.G, §4.E insert trigger order:
// "try compression, then split"). It rebuilds the page in place and
// reports whether it did so; a rebuilt page fits its item region but is
// not necessarily smaller than before. A leaf with fewer than two
// uncompressed items is left alone; compressing a single item can't help
// and just adds per-run framing overhead.
func compressLeafItems(leaf LeafView, codec Codec) bool {
	n := leaf.NumItems()
	if n == 0 {
		return false
	}

	var already [][]byte
	var loose []LeafItem
	for i := 0; i < n; i++ {
		raw := leaf.ReadItemBytes(i)
		if IsCompressedItem(raw) {
			already = append(already, append([]byte(nil), raw...))
			continue
		}
		loose = append(loose, DecodeUncompressedItem(raw))
	}
	if len(loose) < 2 {
		return false
	}

	budget := leaf.opaqueStart() - headerSize
	var runs []CompressedRun
	var loners [][]byte
	comp := codec.CompressBegin(budget)
	var cur []LeafItem
	for _, it := range loose {
		if comp.Add(it) {
			cur = append(cur, it)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, finishRun(comp, cur))
		}
		comp = codec.CompressBegin(budget)
		if comp.Add(it) {
			cur = []LeafItem{it}
			continue
		}
		// Can't even compress alone in a fresh run: emit it uncompressed
		// rather than claim a run covers an item its blob doesn't hold.
		loners = append(loners, EncodeUncompressedItem(it))
		comp = codec.CompressBegin(budget)
		cur = nil
	}
	if len(cur) > 0 {
		runs = append(runs, finishRun(comp, cur))
	}

	items := append(already, loners...)
	for _, r := range runs {
		items = append(items, EncodeCompressedRun(r))
	}
	sort.Slice(items, func(i, j int) bool {
		return itemFirstTID(items[i]).Less(itemFirstTID(items[j]))
	})

	// The run framing the codec adds can make a small item set larger
	// compressed than uncompressed. Check the replacement fits in the
	// scratch item set before touching the live page at all (spec §4.G
	// step 5: abort with the page untouched if it wouldn't).
	needed := 0
	for _, it := range items {
		needed += align(len(it)) + slotSize
	}
	if needed > leaf.opaqueStart()-headerSize {
		return false
	}

	leaf.RebuildFrom(items)
	return true
}

func finishRun(comp Compressor, items []LeafItem) CompressedRun {
	blob := comp.Finish()
	return CompressedRun{FirstTID: items[0].TID, LastTID: items[len(items)-1].TID, Blob: blob}
}
