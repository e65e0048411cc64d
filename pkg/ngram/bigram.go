package ngram

import (
	"encoding/binary"
	"fmt"

	"github.com/arvindr/wordpilot/internal/mmapfile"
)

// BigramFile is a memory-mapped, read-only view of a bigram artifact.
// Safe for concurrent Lookup calls; Close invalidates any slice obtained
// through Lookup's returned Edge values (which are copies, not slices of
// the mapping, so they outlive Close — only the mapping itself does not).
type BigramFile struct {
	mm         *mmapfile.File
	data       []byte
	VocabSize  int
	EdgesCount int
	TopN       int
}

// OpenBigram maps path and parses its header. It does not walk the whole
// index; that happens lazily per Lookup.
func OpenBigram(path string) (*BigramFile, error) {
	mm, err := mmapfile.Open(path)
	if err != nil {
		return nil, err
	}
	data := mm.Bytes()
	bf := &BigramFile{mm: mm, data: data}
	if err := bf.parseHeader(); err != nil {
		mm.Close()
		return nil, err
	}
	return bf, nil
}

func (bf *BigramFile) parseHeader() error {
	if len(bf.data) < headerSize {
		return ErrSizeMismatch
	}
	magic := binary.LittleEndian.Uint32(bf.data[0:4])
	if magic != BigramMagic {
		return ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(bf.data[4:8])
	if version != FormatVersion {
		return ErrBadVersion
	}
	vocabSize := binary.LittleEndian.Uint32(bf.data[8:12])
	edgesCount := binary.LittleEndian.Uint32(bf.data[12:16])
	topN := binary.LittleEndian.Uint32(bf.data[16:20])
	for _, b := range bf.data[20:32] {
		if b != 0 {
			return ErrReservedNonZero
		}
	}
	wantSize := headerSize + int(vocabSize)*bigramIndexSz + int(edgesCount)*edgeSz
	if wantSize != len(bf.data) {
		return ErrSizeMismatch
	}
	bf.VocabSize = int(vocabSize)
	bf.EdgesCount = int(edgesCount)
	bf.TopN = int(topN)
	return nil
}

func (bf *BigramFile) indexOffset(prevID int) int {
	return headerSize + prevID*bigramIndexSz
}

func (bf *BigramFile) edgesBase() int {
	return headerSize + bf.VocabSize*bigramIndexSz
}

// Lookup returns the successor edges for prevID, best-first. Returns an
// empty (nil) slice, never panics, if prevID is out of range or the file
// is corrupt in a way that would read out of bounds — per §4.4/§7 a lookup
// on a corrupt artifact must degrade to "no suggestion", not crash.
func (bf *BigramFile) Lookup(prevID uint32) []Edge {
	if bf == nil || int(prevID) >= bf.VocabSize {
		return nil
	}
	off := bf.indexOffset(int(prevID))
	if off+bigramIndexSz > len(bf.data) {
		return nil
	}
	offsetBytes := binary.LittleEndian.Uint32(bf.data[off : off+4])
	length := binary.LittleEndian.Uint16(bf.data[off+4 : off+6])
	if length == 0 {
		return nil
	}
	base := bf.edgesBase()
	start := base + int(offsetBytes)
	end := start + int(length)*edgeSz
	if start < base || end > len(bf.data) || start > end {
		return nil
	}
	edges := make([]Edge, length)
	for i := 0; i < int(length); i++ {
		o := start + i*edgeSz
		edges[i] = Edge{
			NextID: binary.LittleEndian.Uint32(bf.data[o : o+4]),
			Weight: binary.LittleEndian.Uint16(bf.data[o+4 : o+6]),
			Flags:  binary.LittleEndian.Uint16(bf.data[o+6 : o+8]),
		}
	}
	return edges
}

// Close unmaps the underlying file.
func (bf *BigramFile) Close() error {
	return bf.mm.Close()
}

// Validate walks every invariant in §3/§8 and returns the first violation
// found, or nil if the artifact is well-formed. Unlike Lookup (which must
// never error, only degrade), Validate is meant to be loud: it's the
// backing for the `validate` CLI command.
func (bf *BigramFile) Validate() error {
	if err := bf.parseHeader(); err != nil {
		return err
	}
	base := bf.edgesBase()
	edgesEnd := base + bf.EdgesCount*edgeSz
	for prevID := 0; prevID < bf.VocabSize; prevID++ {
		off := bf.indexOffset(prevID)
		offsetBytes := binary.LittleEndian.Uint32(bf.data[off : off+4])
		length := binary.LittleEndian.Uint16(bf.data[off+4 : off+6])
		reserved := binary.LittleEndian.Uint16(bf.data[off+6 : off+8])
		if reserved != 0 {
			return fmt.Errorf("%w: index[%d].reserved", ErrReservedNonZero, prevID)
		}
		if length == 0 {
			continue
		}
		start := base + int(offsetBytes)
		end := start + int(length)*edgeSz
		if start < base || end > edgesEnd {
			return fmt.Errorf("%w: index[%d] range [%d,%d) outside edges region", ErrOutOfBounds, prevID, start, end)
		}
		if err := validateEdgeRun(bf.data, start, int(length)); err != nil {
			return fmt.Errorf("index[%d]: %w", prevID, err)
		}
	}
	return nil
}

func validateEdgeRun(data []byte, start, length int) error {
	seen := make(map[uint32]struct{}, length)
	var prevWeight uint16 = 0xFFFF
	for i := 0; i < length; i++ {
		o := start + i*edgeSz
		nextID := binary.LittleEndian.Uint32(data[o : o+4])
		weight := binary.LittleEndian.Uint16(data[o+4 : o+6])
		flags := binary.LittleEndian.Uint16(data[o+6 : o+8])
		if flags != 0 {
			return fmt.Errorf("%w: edge[%d].flags", ErrReservedNonZero, i)
		}
		if _, dup := seen[nextID]; dup {
			return fmt.Errorf("%w: next_id=%d", ErrDuplicateNextID, nextID)
		}
		seen[nextID] = struct{}{}
		if i > 0 && weight > prevWeight {
			return fmt.Errorf("%w: edge[%d].weight=%d > edge[%d].weight=%d", ErrWeightOrder, i, weight, i-1, prevWeight)
		}
		prevWeight = weight
	}
	return nil
}
