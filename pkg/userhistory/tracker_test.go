package userhistory

import "testing"

func TestTrackerObserveNewAndExisting(t *testing.T) {
	tr := NewTopNTracker(5)
	tr.Observe(42, 100)
	tr.Observe(42, 200)
	e, ok := tr.Edges[42]
	if !ok {
		t.Fatalf("expected edge 42 to exist")
	}
	if e.Count != 2 {
		t.Fatalf("Count = %d, want 2", e.Count)
	}
	if e.LastUsed != 200 {
		t.Fatalf("LastUsed = %d, want 200", e.LastUsed)
	}
}

func TestTrackerNoPruneBelowThreshold(t *testing.T) {
	tr := NewTopNTracker(3)
	for i := uint32(0); i < 300; i++ {
		tr.Observe(i, 1)
	}
	if len(tr.Edges) != 300 {
		t.Fatalf("expected no pruning below threshold, len = %d, want 300", len(tr.Edges))
	}
}

func TestTrackerPrunesAtThreshold(t *testing.T) {
	tr := NewTopNTracker(3)
	// PruneThreshold = TopN*100 = 300; the 301st distinct id triggers prune
	// down to 2*TopN = 6.
	for i := uint32(0); i < 301; i++ {
		tr.Observe(i, uint32(i))
	}
	if len(tr.Edges) != 6 {
		t.Fatalf("expected pruned size 2*TopN=6, got %d", len(tr.Edges))
	}
}

func TestTrackerPruneKeepsHighestScoring(t *testing.T) {
	tr := NewTopNTracker(1)
	now := uint32(1000)
	// id 0 gets a very high count, the rest get a single observation each.
	for i := 0; i < 50; i++ {
		tr.Observe(0, now)
	}
	for i := uint32(1); i < uint32(tr.PruneThreshold); i++ {
		tr.Observe(i, now)
	}
	// one more observation pushes it over the threshold and triggers prune.
	tr.Observe(999999, now)
	if _, ok := tr.Edges[0]; !ok {
		t.Fatalf("expected high-count id 0 to survive pruning")
	}
}

func TestTrackerPredictOrderingAndLimit(t *testing.T) {
	tr := NewTopNTracker(2)
	now := uint32(1000)
	tr.Observe(1, now)
	for i := 0; i < 5; i++ {
		tr.Observe(2, now)
	}
	for i := 0; i < 10; i++ {
		tr.Observe(3, now)
	}
	preds := tr.Predict(now)
	if len(preds) != 2 {
		t.Fatalf("Predict len = %d, want 2 (capped to TopN)", len(preds))
	}
	if preds[0].ID != 3 {
		t.Fatalf("expected id 3 (highest count) first, got %d", preds[0].ID)
	}
	if preds[1].ID != 2 {
		t.Fatalf("expected id 2 second, got %d", preds[1].ID)
	}
}

func TestTrackerPredictTieBreaksByID(t *testing.T) {
	tr := NewTopNTracker(5)
	now := uint32(1000)
	tr.Observe(20, now)
	tr.Observe(10, now)
	preds := tr.Predict(now)
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[0].ID != 10 || preds[1].ID != 20 {
		t.Fatalf("expected tie broken by ascending id, got %v", preds)
	}
}

func TestTrackerJSONRoundTripRecomputesPruneThreshold(t *testing.T) {
	tr := NewTopNTracker(4)
	tr.Observe(1, 10)

	// Simulate a JSON round trip where PruneThreshold (tagged "-") is lost.
	restored := &TopNTracker{Edges: tr.Edges, TopN: tr.TopN}
	restored.Observe(2, 20)
	if restored.PruneThreshold != 4*100 {
		t.Fatalf("PruneThreshold after recompute = %d, want 400", restored.PruneThreshold)
	}
}
