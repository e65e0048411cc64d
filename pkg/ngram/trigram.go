package ngram

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/arvindr/wordpilot/internal/mmapfile"
)

// TrigramFile is a memory-mapped, read-only view of a trigram cache
// artifact: a binary-searchable table of selected (w1,w2) pairs.
type TrigramFile struct {
	mm       *mmapfile.File
	data     []byte
	NumPairs int
	TopN     int
}

// OpenTrigram maps path and parses its header.
func OpenTrigram(path string) (*TrigramFile, error) {
	mm, err := mmapfile.Open(path)
	if err != nil {
		return nil, err
	}
	data := mm.Bytes()
	tf := &TrigramFile{mm: mm, data: data}
	if err := tf.parseHeader(); err != nil {
		mm.Close()
		return nil, err
	}
	return tf, nil
}

func (tf *TrigramFile) parseHeader() error {
	if len(tf.data) < headerSize {
		return ErrSizeMismatch
	}
	magic := binary.LittleEndian.Uint32(tf.data[0:4])
	if magic != TrigramMagic {
		return ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(tf.data[4:8])
	if version != FormatVersion {
		return ErrBadVersion
	}
	numPairs := binary.LittleEndian.Uint32(tf.data[8:12])
	topN := binary.LittleEndian.Uint32(tf.data[12:16])
	for _, b := range tf.data[16:32] {
		if b != 0 {
			return ErrReservedNonZero
		}
	}
	// total_edges isn't in the header for the trigram file (unlike
	// bigram's edges_count); the pair table's (offset,len) entries imply
	// it, so the exact file size is derived by scanning the pair table for
	// the furthest edge range rather than read off a declared count.
	wantMinSize := headerSize + int(numPairs)*trigramPairSz
	if wantMinSize > len(tf.data) {
		return ErrSizeMismatch
	}
	tf.NumPairs = int(numPairs)
	tf.TopN = int(topN)

	edgesEnd := 0
	for i := 0; i < tf.NumPairs; i++ {
		_, _, offset, length := tf.pairAt(i)
		if length == 0 {
			continue
		}
		end := int(offset) + int(length)*edgeSz
		if end > edgesEnd {
			edgesEnd = end
		}
	}
	wantSize := wantMinSize + edgesEnd
	if wantSize != len(tf.data) {
		return ErrSizeMismatch
	}
	return nil
}

func (tf *TrigramFile) pairOffset(i int) int {
	return headerSize + i*trigramPairSz
}

func (tf *TrigramFile) edgesBase() int {
	return headerSize + tf.NumPairs*trigramPairSz
}

func (tf *TrigramFile) pairAt(i int) (w1, w2, offset uint32, length uint16) {
	o := tf.pairOffset(i)
	w1 = binary.LittleEndian.Uint32(tf.data[o : o+4])
	w2 = binary.LittleEndian.Uint32(tf.data[o+4 : o+8])
	offset = binary.LittleEndian.Uint32(tf.data[o+8 : o+12])
	length = binary.LittleEndian.Uint16(tf.data[o+12 : o+14])
	return
}

// Lookup binary searches the pair table for (w1,w2) and returns its
// successor edges, best-first, or nil if the pair was never selected (or
// the file is corrupt in a way that would read out of bounds).
func (tf *TrigramFile) Lookup(w1, w2 uint32) []Edge {
	if tf == nil || tf.NumPairs == 0 {
		return nil
	}
	idx := sort.Search(tf.NumPairs, func(i int) bool {
		pw1, pw2, _, _ := tf.pairAt(i)
		if pw1 != w1 {
			return pw1 >= w1
		}
		return pw2 >= w2
	})
	if idx >= tf.NumPairs {
		return nil
	}
	pw1, pw2, offset, length := tf.pairAt(idx)
	if pw1 != w1 || pw2 != w2 || length == 0 {
		return nil
	}
	base := tf.edgesBase()
	start := base + int(offset)
	end := start + int(length)*edgeSz
	if start < base || end > len(tf.data) || start > end {
		return nil
	}
	edges := make([]Edge, length)
	for i := 0; i < int(length); i++ {
		o := start + i*edgeSz
		edges[i] = Edge{
			NextID: binary.LittleEndian.Uint32(tf.data[o : o+4]),
			Weight: binary.LittleEndian.Uint16(tf.data[o+4 : o+6]),
			Flags:  binary.LittleEndian.Uint16(tf.data[o+6 : o+8]),
		}
	}
	return edges
}

// Close unmaps the underlying file.
func (tf *TrigramFile) Close() error {
	return tf.mm.Close()
}

// Validate walks every invariant in §3/§8 and returns the first violation
// found, or nil if well-formed.
func (tf *TrigramFile) Validate() error {
	if err := tf.parseHeader(); err != nil {
		return err
	}
	base := tf.edgesBase()
	var prevW1, prevW2 uint32
	for i := 0; i < tf.NumPairs; i++ {
		w1, w2, offset, length := tf.pairAt(i)
		o := tf.pairOffset(i)
		reserved := binary.LittleEndian.Uint16(tf.data[o+14 : o+16])
		if reserved != 0 {
			return fmt.Errorf("%w: pair[%d].reserved", ErrReservedNonZero, i)
		}
		if i > 0 && !(w1 > prevW1 || (w1 == prevW1 && w2 > prevW2)) {
			return fmt.Errorf("%w: pair[%d]=(%d,%d) does not exceed pair[%d]=(%d,%d)",
				ErrNonMonotone, i, w1, w2, i-1, prevW1, prevW2)
		}
		prevW1, prevW2 = w1, w2
		if length == 0 {
			continue
		}
		start := base + int(offset)
		end := start + int(length)*edgeSz
		if start < base || end > len(tf.data) {
			return fmt.Errorf("%w: pair[%d] range [%d,%d) outside edges region", ErrOutOfBounds, i, start, end)
		}
		if err := validateEdgeRun(tf.data, start, int(length)); err != nil {
			return fmt.Errorf("pair[%d]: %w", i, err)
		}
	}
	return nil
}
