package ngram

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/arvindr/wordpilot/pkg/vocab"
	"github.com/charmbracelet/log"
)

// BigramBuilder turns a token stream into a bigram artifact under bounded
// memory, using one of two strategies (§4.2): Sharded, a two-phase
// RAM-bounded build that spills pair observations to shard files before
// counting; or Streaming, a single-pass approximate build that keeps a
// self-pruning tracker per previous token.
type BigramBuilder struct {
	Vocab *vocab.Map
	TopN  int
}

// NewBigramBuilder creates a builder against a fixed vocabulary and
// per-entry successor cap.
func NewBigramBuilder(vmap *vocab.Map, topN int) *BigramBuilder {
	return &BigramBuilder{Vocab: vmap, TopN: topN}
}

// BuildSharded implements the sharded, two-phase strategy: stream the
// corpus once into `shards` append-only shard files keyed by
// prevID mod shards, then read each shard back and add its pair counts to
// one per-previous-token map (which holds the counts of all shards
// together) before writing the final artifact.
func (b *BigramBuilder) BuildSharded(corpus io.Reader, outPath string, shards int) error {
	if shards < 1 {
		shards = 1
	}
	shardFiles := make([]*os.File, shards)
	shardWriters := make([]*bufio.Writer, shards)
	for i := range shardFiles {
		f, err := os.CreateTemp("", "wordpilot-bigram-shard-*")
		if err != nil {
			return err
		}
		shardFiles[i] = f
		shardWriters[i] = bufio.NewWriter(f)
	}
	defer func() {
		for _, f := range shardFiles {
			name := f.Name()
			f.Close()
			if err := os.Remove(name); err != nil {
				log.Warnf("ngram: failed to remove shard file %s: %v", name, err)
			}
		}
	}()

	err := ForEachChainRun(corpus, b.Vocab, func(run []uint32) {
		for i := 1; i < len(run); i++ {
			prev, next := run[i-1], run[i]
			shard := int(prev) % shards
			binary.Write(shardWriters[shard], binary.LittleEndian, prev)
			binary.Write(shardWriters[shard], binary.LittleEndian, next)
		}
	})
	if err != nil {
		return err
	}
	for i, w := range shardWriters {
		if err := w.Flush(); err != nil {
			return err
		}
		if _, err := shardFiles[i].Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	perPrev := make(map[uint32]map[uint32]uint64, b.Vocab.VocabSize())
	for _, f := range shardFiles {
		reader := bufio.NewReader(f)
		for {
			var prev, next uint32
			if err := binary.Read(reader, binary.LittleEndian, &prev); err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			if err := binary.Read(reader, binary.LittleEndian, &next); err != nil {
				return err
			}
			byNext, ok := perPrev[prev]
			if !ok {
				byNext = make(map[uint32]uint64)
				perPrev[prev] = byNext
			}
			byNext[next]++
		}
	}

	return writeBigramArtifact(outPath, b.Vocab.VocabSize(), b.TopN, perPrev)
}

// BuildStreaming implements the single-pass approximate strategy: one
// TopNTracker per previous token, each self-pruning to 2*TopN once it
// exceeds TopN*100 distinct successors (§4.2, §9 "self-pruning trackers").
func (b *BigramBuilder) BuildStreaming(corpus io.Reader, outPath string) error {
	trackers := make(map[uint32]*countTracker, b.Vocab.VocabSize())
	err := ForEachChainRun(corpus, b.Vocab, func(run []uint32) {
		for i := 1; i < len(run); i++ {
			prev, next := run[i-1], run[i]
			t, ok := trackers[prev]
			if !ok {
				t = newCountTracker(b.TopN)
				trackers[prev] = t
			}
			t.observe(next)
		}
	})
	if err != nil {
		return err
	}

	perPrev := make(map[uint32]map[uint32]uint64, len(trackers))
	for prev, t := range trackers {
		perPrev[prev] = t.counts
	}
	return writeBigramArtifact(outPath, b.Vocab.VocabSize(), b.TopN, perPrev)
}

// countTracker is a self-pruning hashmap next_id -> count used by the
// streaming builder. Mirrors the shape of userhistory's TopNTracker but
// prunes by raw count instead of a decayed score, since a build has no
// clock.
type countTracker struct {
	counts        map[uint32]uint64
	topN          int
	pruneThreshold int
}

func newCountTracker(topN int) *countTracker {
	return &countTracker{
		counts:         make(map[uint32]uint64),
		topN:           topN,
		pruneThreshold: topN * 100,
	}
}

func (t *countTracker) observe(next uint32) {
	t.counts[next]++
	if len(t.counts) > t.pruneThreshold {
		t.prune()
	}
}

func (t *countTracker) prune() {
	type kv struct {
		id    uint32
		count uint64
	}
	all := make([]kv, 0, len(t.counts))
	for id, c := range t.counts {
		all = append(all, kv{id, c})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].count > all[j].count })
	keep := t.topN * 2
	if keep > len(all) {
		keep = len(all)
	}
	pruned := make(map[uint32]uint64, keep)
	for _, e := range all[:keep] {
		pruned[e.id] = e.count
	}
	t.counts = pruned
}

// writeBigramArtifact sorts, truncates to topN, quantizes, and serializes
// perPrev into the fixed bigram layout.
func writeBigramArtifact(outPath string, vocabSize, topN int, perPrev map[uint32]map[uint32]uint64) error {
	type finalEdge struct {
		edges  []Edge
		offset uint32
	}
	entries := make([]finalEdge, vocabSize)
	var edgesCount uint32
	for prevID := 0; prevID < vocabSize; prevID++ {
		byNext, ok := perPrev[uint32(prevID)]
		if !ok || len(byNext) == 0 {
			continue
		}
		type kv struct {
			id    uint32
			count uint64
		}
		all := make([]kv, 0, len(byNext))
		for id, c := range byNext {
			all = append(all, kv{id, c})
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].count != all[j].count {
				return all[i].count > all[j].count
			}
			return all[i].id < all[j].id
		})
		if len(all) > topN {
			all = all[:topN]
		}
		counts := make([]uint64, len(all))
		for i, e := range all {
			counts[i] = e.count
		}
		weights := QuantizeWeights(counts)
		edges := make([]Edge, len(all))
		for i, e := range all {
			edges[i] = Edge{NextID: e.id, Weight: weights[i]}
		}
		entries[prevID] = finalEdge{edges: edges, offset: edgesCount * edgeSz}
		edgesCount += uint32(len(edges))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], BigramMagic)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(vocabSize))
	binary.LittleEndian.PutUint32(header[12:16], edgesCount)
	binary.LittleEndian.PutUint32(header[16:20], uint32(topN))
	if _, err := w.Write(header); err != nil {
		return err
	}

	idx := make([]byte, bigramIndexSz)
	for _, e := range entries {
		binary.LittleEndian.PutUint32(idx[0:4], e.offset)
		binary.LittleEndian.PutUint16(idx[4:6], uint16(len(e.edges)))
		binary.LittleEndian.PutUint16(idx[6:8], 0)
		if _, err := w.Write(idx); err != nil {
			return err
		}
	}

	edgeBuf := make([]byte, edgeSz)
	for _, e := range entries {
		for _, edge := range e.edges {
			binary.LittleEndian.PutUint32(edgeBuf[0:4], edge.NextID)
			binary.LittleEndian.PutUint16(edgeBuf[4:6], edge.Weight)
			binary.LittleEndian.PutUint16(edgeBuf[6:8], 0)
			if _, err := w.Write(edgeBuf); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
