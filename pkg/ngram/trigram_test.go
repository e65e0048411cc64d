package ngram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrigramBuildAndLookupRoundTrip(t *testing.T) {
	vmap := buildTestVocab(t, "i", "want", "to", "go", "home")
	corpus := strings.Repeat("i want to go home\n", 6)

	outPath := filepath.Join(t.TempDir(), "out.trgc")
	builder := NewTrigramBuilder(vmap, 3, 100)
	if err := builder.Build(OpenFile(writeTempCorpus(t, corpus)), outPath); err != nil {
		t.Fatalf("Build: %v", err)
	}

	tf, err := OpenTrigram(outPath)
	if err != nil {
		t.Fatalf("OpenTrigram: %v", err)
	}
	defer tf.Close()
	if err := tf.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	iID, _ := vmap.Lookup("i")
	wantID, _ := vmap.Lookup("want")
	toID, _ := vmap.Lookup("to")

	edges := tf.Lookup(iID, wantID)
	if len(edges) == 0 {
		t.Fatalf("expected a hit for selected pair (i,want)")
	}
	if edges[0].NextID != toID {
		t.Fatalf("expected 'to' as top successor of (i,want), got next_id=%d", edges[0].NextID)
	}

	// (i,want) sorts first in the pair table, giving it offset 0; (want,to)
	// does not, so this exercises a pair entry's offset past the first.
	goID, _ := vmap.Lookup("go")
	wantToEdges := tf.Lookup(wantID, toID)
	if len(wantToEdges) == 0 {
		t.Fatalf("expected a hit for selected pair (want,to)")
	}
	if wantToEdges[0].NextID != goID {
		t.Fatalf("expected 'go' as top successor of (want,to), got next_id=%d", wantToEdges[0].NextID)
	}
}

func TestTrigramLookupMissReturnsEmpty(t *testing.T) {
	vmap := buildTestVocab(t, "i", "want", "to", "go", "home")
	corpus := strings.Repeat("i want to go home\n", 6)
	outPath := filepath.Join(t.TempDir(), "out.trgc")
	builder := NewTrigramBuilder(vmap, 3, 100)
	if err := builder.Build(OpenFile(writeTempCorpus(t, corpus)), outPath); err != nil {
		t.Fatalf("Build: %v", err)
	}
	tf, err := OpenTrigram(outPath)
	if err != nil {
		t.Fatalf("OpenTrigram: %v", err)
	}
	defer tf.Close()

	if edges := tf.Lookup(1<<20, 1<<20); edges != nil {
		t.Fatalf("expected nil for a pair that was never selected, got %v", edges)
	}
}

func writeTempCorpus(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
