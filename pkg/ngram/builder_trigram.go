package ngram

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/arvindr/wordpilot/pkg/vocab"
)

// pairKey packs a (w1,w2) pair so it can key a plain Go map while sorting
// the same way the on-disk table does: lexicographically by (w1,w2).
type pairKey struct {
	w1, w2 uint32
}

// TrigramBuilder builds the trigram cache in two passes over the corpus
// (§4.3): the first selects the MaxPairs most frequent (w1,w2) pairs, the
// second collects each selected pair's top successors.
type TrigramBuilder struct {
	Vocab    *vocab.Map
	TopN     int
	MaxPairs int
}

// NewTrigramBuilder creates a builder that keeps at most maxPairs entries
// in the pair table, each capped to topN successors.
func NewTrigramBuilder(vmap *vocab.Map, topN, maxPairs int) *TrigramBuilder {
	return &TrigramBuilder{Vocab: vmap, TopN: topN, MaxPairs: maxPairs}
}

// Build runs both passes. opener must return a fresh reader over the same
// corpus each time it's called, since the corpus is scanned twice.
func (b *TrigramBuilder) Build(opener func() (io.Reader, error), outPath string) error {
	selected, err := b.selectPairs(opener)
	if err != nil {
		return err
	}
	perPair, err := b.collectSuccessors(opener, selected)
	if err != nil {
		return err
	}
	return writeTrigramArtifact(outPath, b.TopN, selected, perPair)
}

// selectPairs is pass one: count every (w1,w2) pair's frequency and keep
// the MaxPairs most frequent.
func (b *TrigramBuilder) selectPairs(opener func() (io.Reader, error)) ([]pairKey, error) {
	r, err := opener()
	if err != nil {
		return nil, err
	}
	pairCounts := make(map[pairKey]uint64)
	err = ForEachChainRun(r, b.Vocab, func(run []uint32) {
		for i := 2; i < len(run); i++ {
			k := pairKey{run[i-2], run[i-1]}
			pairCounts[k]++
		}
	})
	if closer, ok := r.(io.Closer); ok {
		closer.Close()
	}
	if err != nil {
		return nil, err
	}

	type kv struct {
		k pairKey
		c uint64
	}
	all := make([]kv, 0, len(pairCounts))
	for k, c := range pairCounts {
		all = append(all, kv{k, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].c != all[j].c {
			return all[i].c > all[j].c
		}
		if all[i].k.w1 != all[j].k.w1 {
			return all[i].k.w1 < all[j].k.w1
		}
		return all[i].k.w2 < all[j].k.w2
	})
	if len(all) > b.MaxPairs {
		all = all[:b.MaxPairs]
	}
	selected := make([]pairKey, len(all))
	for i, e := range all {
		selected[i] = e.k
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].w1 != selected[j].w1 {
			return selected[i].w1 < selected[j].w1
		}
		return selected[i].w2 < selected[j].w2
	})
	return selected, nil
}

// collectSuccessors is pass two: for every selected pair, accumulate
// counts of the token that follows it.
func (b *TrigramBuilder) collectSuccessors(opener func() (io.Reader, error), selected []pairKey) (map[pairKey]map[uint32]uint64, error) {
	r, err := opener()
	if err != nil {
		return nil, err
	}
	wanted := make(map[pairKey]struct{}, len(selected))
	for _, k := range selected {
		wanted[k] = struct{}{}
	}
	perPair := make(map[pairKey]map[uint32]uint64, len(selected))
	err = ForEachChainRun(r, b.Vocab, func(run []uint32) {
		for i := 2; i < len(run); i++ {
			k := pairKey{run[i-2], run[i-1]}
			if _, ok := wanted[k]; !ok {
				continue
			}
			byNext, ok := perPair[k]
			if !ok {
				byNext = make(map[uint32]uint64)
				perPair[k] = byNext
			}
			byNext[run[i]]++
		}
	})
	if closer, ok := r.(io.Closer); ok {
		closer.Close()
	}
	if err != nil {
		return nil, err
	}
	return perPair, nil
}

// OpenFile returns an opener suitable for Build that re-opens path each
// time it's called.
func OpenFile(path string) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		return os.Open(path)
	}
}

func writeTrigramArtifact(outPath string, topN int, selected []pairKey, perPair map[pairKey]map[uint32]uint64) error {
	type pairEntry struct {
		key    pairKey
		edges  []Edge
		offset uint32
	}
	entries := make([]pairEntry, 0, len(selected))
	var edgesTotal uint32
	for _, k := range selected {
		byNext := perPair[k]
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
		entries = append(entries, pairEntry{key: k, edges: edges, offset: edgesTotal * edgeSz})
		edgesTotal += uint32(len(edges))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], TrigramMagic)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(entries)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(topN))
	if _, err := w.Write(header); err != nil {
		return err
	}

	pairBuf := make([]byte, trigramPairSz)
	for _, e := range entries {
		binary.LittleEndian.PutUint32(pairBuf[0:4], e.key.w1)
		binary.LittleEndian.PutUint32(pairBuf[4:8], e.key.w2)
		binary.LittleEndian.PutUint32(pairBuf[8:12], e.offset)
		binary.LittleEndian.PutUint16(pairBuf[12:14], uint16(len(e.edges)))
		binary.LittleEndian.PutUint16(pairBuf[14:16], 0)
		if _, err := w.Write(pairBuf); err != nil {
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
