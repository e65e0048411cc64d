/*
Package ngram implements the on-disk bigram and trigram cache artifacts:
self-describing, position-indexed binary files designed for zero-copy
lookup via memory mapping (see internal/mmapfile).

# Layout

Both artifacts share the same shape: a 32-byte header, a fixed-width index
(one entry per vocabulary id for the bigram file, one entry per selected
pair for the trigram cache), and a flat array of 8-byte edge records. All
integers are little-endian; reserved bytes are always zero.

	bigram file:  header(32) | index[vocab_size](8 each) | edges(8 each)
	trigram file: header(32) | pairs[num_pairs](16 each) | edges(8 each)

The fixed-width encoding is what makes lookup O(1)/O(log n) with no parse
step: a reader never allocates to walk these files, it only slices the
mapped byte range.

# Building

BigramBuilder and TrigramBuilder turn a token stream into these artifacts
under bounded memory, using top-N pruning and log-scaled weight
quantization (see quantize.go) instead of storing raw counts.
*/
package ngram

import "errors"

const (
	// BigramMagic identifies a bigram artifact ("BGRM").
	BigramMagic uint32 = 0x4247524D
	// TrigramMagic identifies a trigram cache artifact ("TRGC").
	TrigramMagic uint32 = 0x54524743
	// FormatVersion is the only version this package emits or accepts.
	FormatVersion uint32 = 1

	headerSize     = 32
	bigramIndexSz  = 8
	edgeSz         = 8
	trigramPairSz  = 16
)

// Edge is one successor record: a next token id and its quantized weight.
type Edge struct {
	NextID uint32
	Weight uint16
	Flags  uint16
}

var (
	// ErrBadMagic means the file's magic number doesn't match the expected
	// artifact type.
	ErrBadMagic = errors.New("ngram: bad magic number")
	// ErrBadVersion means the file declares an unsupported format version.
	ErrBadVersion = errors.New("ngram: unsupported format version")
	// ErrSizeMismatch means the file size doesn't match header + index +
	// edges*8 exactly.
	ErrSizeMismatch = errors.New("ngram: file size does not match header")
	// ErrOutOfBounds means an index or pair entry points outside the edges
	// region.
	ErrOutOfBounds = errors.New("ngram: entry offset/length out of bounds")
	// ErrNonMonotone means the trigram pair table is not strictly
	// increasing on (w1, w2).
	ErrNonMonotone = errors.New("ngram: trigram pair table is not strictly increasing")
	// ErrDuplicateNextID means an entry's edges repeat a next_id.
	ErrDuplicateNextID = errors.New("ngram: duplicate next_id within one entry")
	// ErrWeightOrder means an entry's weights are not non-increasing.
	ErrWeightOrder = errors.New("ngram: weights within an entry are not non-increasing")
	// ErrReservedNonZero means a reserved field is non-zero.
	ErrReservedNonZero = errors.New("ngram: reserved field is non-zero")
)

// DetectMagic peeks at the first 4 bytes of a mapped artifact and reports
// which kind of file it is, without fully validating it.
func DetectMagic(data []byte) (magic uint32, ok bool) {
	if len(data) < 4 {
		return 0, false
	}
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24, true
}
