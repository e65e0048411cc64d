package ngram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arvindr/wordpilot/pkg/vocab"
)

func buildTestVocab(t *testing.T, words ...string) *vocab.Map {
	t.Helper()
	vmap, err := vocab.Build(words, nil)
	if err != nil {
		t.Fatalf("vocab.Build: %v", err)
	}
	return vmap
}

func TestBigramBuildStreamingRoundTrip(t *testing.T) {
	vmap := buildTestVocab(t, "the", "cat", "sat", "on", "mat")
	corpus := strings.NewReader("the cat sat on the mat\nthe cat sat on the mat\nthe cat sat on the mat\n")

	outPath := filepath.Join(t.TempDir(), "out.bgrm")
	builder := NewBigramBuilder(vmap, 3)
	if err := builder.BuildStreaming(corpus, outPath); err != nil {
		t.Fatalf("BuildStreaming: %v", err)
	}

	bf, err := OpenBigram(outPath)
	if err != nil {
		t.Fatalf("OpenBigram: %v", err)
	}
	defer bf.Close()

	if err := bf.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if bf.VocabSize != vmap.VocabSize() {
		t.Fatalf("VocabSize = %d, want %d", bf.VocabSize, vmap.VocabSize())
	}

	theID, _ := vmap.Lookup("the")
	catID, _ := vmap.Lookup("cat")
	edges := bf.Lookup(theID)
	if len(edges) == 0 {
		t.Fatalf("expected successors for 'the'")
	}
	if edges[0].NextID != catID {
		t.Fatalf("expected 'cat' to be the top successor of 'the', got next_id=%d", edges[0].NextID)
	}
	if edges[0].Weight != 65535 {
		t.Fatalf("expected top entry weight ~65535, got %d", edges[0].Weight)
	}

	// "the" has offset 0 in the edges region; "cat" does not, so this
	// exercises the index entry's offset field past its first nonzero use.
	satID, _ := vmap.Lookup("sat")
	catEdges := bf.Lookup(catID)
	if len(catEdges) == 0 {
		t.Fatalf("expected successors for 'cat'")
	}
	if catEdges[0].NextID != satID {
		t.Fatalf("expected 'sat' to be the top successor of 'cat', got next_id=%d", catEdges[0].NextID)
	}
}

func TestBigramBuildShardedRoundTrip(t *testing.T) {
	vmap := buildTestVocab(t, "the", "cat", "sat", "on", "mat")
	text := strings.Repeat("the cat sat on the mat\n", 5)

	shardedPath := filepath.Join(t.TempDir(), "sharded.bgrm")
	builder := NewBigramBuilder(vmap, 3)
	if err := builder.BuildSharded(strings.NewReader(text), shardedPath, 2); err != nil {
		t.Fatalf("BuildSharded: %v", err)
	}

	bf, err := OpenBigram(shardedPath)
	if err != nil {
		t.Fatalf("OpenBigram: %v", err)
	}
	defer bf.Close()
	if err := bf.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	theID, _ := vmap.Lookup("the")
	catID, _ := vmap.Lookup("cat")
	satID, _ := vmap.Lookup("sat")
	edges := bf.Lookup(theID)
	if len(edges) == 0 || edges[0].NextID != catID {
		t.Fatalf("expected 'cat' as top successor of 'the' in sharded build")
	}
	catEdges := bf.Lookup(catID)
	if len(catEdges) == 0 || catEdges[0].NextID != satID {
		t.Fatalf("expected 'sat' as top successor of 'cat' in sharded build")
	}
}

func TestBigramLookupOutOfVocabSafety(t *testing.T) {
	vmap := buildTestVocab(t, "a", "b")
	outPath := filepath.Join(t.TempDir(), "out.bgrm")
	builder := NewBigramBuilder(vmap, 2)
	if err := builder.BuildStreaming(strings.NewReader("a b\n"), outPath); err != nil {
		t.Fatalf("BuildStreaming: %v", err)
	}
	bf, err := OpenBigram(outPath)
	if err != nil {
		t.Fatalf("OpenBigram: %v", err)
	}
	defer bf.Close()

	if edges := bf.Lookup(uint32(bf.VocabSize)); edges != nil {
		t.Fatalf("expected nil for out-of-range prevID, got %v", edges)
	}
	if edges := bf.Lookup(1 << 30); edges != nil {
		t.Fatalf("expected nil for wildly out-of-range prevID, got %v", edges)
	}
}

func TestBigramValidateDetectsTruncation(t *testing.T) {
	vmap := buildTestVocab(t, "the", "cat", "sat")
	outPath := filepath.Join(t.TempDir(), "out.bgrm")
	builder := NewBigramBuilder(vmap, 2)
	if err := builder.BuildStreaming(strings.NewReader("the cat sat\nthe cat sat\n"), outPath); err != nil {
		t.Fatalf("BuildStreaming: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	truncated := data[:len(data)-1]
	truncPath := filepath.Join(t.TempDir(), "truncated.bgrm")
	if err := os.WriteFile(truncPath, truncated, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := OpenBigram(truncPath); err != ErrSizeMismatch {
		t.Fatalf("OpenBigram on truncated file: got %v, want %v", err, ErrSizeMismatch)
	}
}

func TestBigramChainBreaksOnOOVAndNewline(t *testing.T) {
	vmap := buildTestVocab(t, "the", "cat")
	outPath := filepath.Join(t.TempDir(), "out.bgrm")
	builder := NewBigramBuilder(vmap, 2)
	// "qzx" is OOV and breaks the chain; "the" at EOL never gets a
	// successor recorded from the next line.
	corpus := "the qzx cat\nthe\ncat the\n"
	if err := builder.BuildStreaming(strings.NewReader(corpus), outPath); err != nil {
		t.Fatalf("BuildStreaming: %v", err)
	}
	bf, err := OpenBigram(outPath)
	if err != nil {
		t.Fatalf("OpenBigram: %v", err)
	}
	defer bf.Close()

	theID, _ := vmap.Lookup("the")
	catID, _ := vmap.Lookup("cat")
	// "the" is followed by "cat" only through line 3 ("cat the" -> no,
	// that's cat->the). No run ever has the immediately followed by cat
	// since "the qzx cat" breaks at qzx. So the->cat should not appear.
	for _, e := range bf.Lookup(theID) {
		if e.NextID == catID {
			t.Fatalf("expected OOV token to break the chain between 'the' and 'cat'")
		}
	}
}
