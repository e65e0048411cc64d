package userhistory

import "sort"

// TopNTracker is a self-pruning hash map next_id -> EdgeStat (§4.6). It
// accumulates indefinitely until it exceeds PruneThreshold entries, at
// which point it prunes down to 2*TopN by current effective score.
type TopNTracker struct {
	Edges          map[uint32]*EdgeStat `json:"edges"`
	TopN           int                  `json:"top_n"`
	PruneThreshold int                  `json:"-"`
}

// NewTopNTracker creates a tracker capped to topN finalized entries.
func NewTopNTracker(topN int) *TopNTracker {
	return &TopNTracker{
		Edges:          make(map[uint32]*EdgeStat),
		TopN:           topN,
		PruneThreshold: topN * 100,
	}
}

// setPruneThreshold recomputes PruneThreshold after a JSON load, where the
// unexported-derived field isn't persisted.
func (t *TopNTracker) setPruneThreshold() {
	if t.PruneThreshold == 0 {
		t.PruneThreshold = t.TopN * 100
	}
}

// Observe records one occurrence of nextID at time now, pruning if the
// tracker has grown oversize.
func (t *TopNTracker) Observe(nextID uint32, now uint32) {
	t.setPruneThreshold()
	if e, ok := t.Edges[nextID]; ok {
		e.Count++
		e.LastUsed = now
	} else {
		t.Edges[nextID] = &EdgeStat{Count: 1, LastUsed: now}
	}
	if len(t.Edges) > t.PruneThreshold {
		t.prune(now)
	}
}

// prune keeps the 2*TopN highest-scoring entries as of now. Lossy and
// intentional: recency protects recently-used edges even at low counts.
func (t *TopNTracker) prune(now uint32) {
	type kv struct {
		id uint32
		s  uint16
	}
	all := make([]kv, 0, len(t.Edges))
	for id, e := range t.Edges {
		all = append(all, kv{id, e.Score(now)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].s > all[j].s })
	keep := t.TopN * 2
	if keep > len(all) {
		keep = len(all)
	}
	kept := make(map[uint32]*EdgeStat, keep)
	for _, e := range all[:keep] {
		kept[e.id] = t.Edges[e.id]
	}
	t.Edges = kept
}

// Predict returns the tracker's entries ranked by current effective
// score, best-first, truncated to TopN.
func (t *TopNTracker) Predict(now uint32) []Prediction {
	t.setPruneThreshold()
	out := make([]Prediction, 0, len(t.Edges))
	for id, e := range t.Edges {
		out = append(out, Prediction{ID: id, Score: e.Score(now)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > t.TopN {
		out = out[:t.TopN]
	}
	return out
}

// Prediction is one ranked (id, score) result from a tracker.
type Prediction struct {
	ID    uint32
	Score uint16
}
