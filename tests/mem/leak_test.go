//go:build test

package mem

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/arvindr/wordpilot/pkg/ngram"
	"github.com/arvindr/wordpilot/pkg/suggest"
	"github.com/arvindr/wordpilot/pkg/vocab"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var testPrefixes = []string{
	"the", "cat", "sat", "on", "mat",
	"i want", "want to", "to go", "go home",
	"my name", "name is", "is cool",
}

func newTestEngine(t testing.TB) *suggest.Engine {
	t.Helper()
	words := []string{"the", "cat", "sat", "on", "mat", "i", "want", "to", "go", "home", "my", "name", "is", "cool"}
	vmap, err := vocab.Build(words, nil)
	if err != nil {
		t.Fatalf("vocab.Build: %v", err)
	}

	corpus := strings.Repeat("the cat sat on the mat\ni want to go home\nmy name is cool\n", 20)
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(corpusPath, []byte(corpus), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	bigramPath := filepath.Join(dir, "out.bgrm")
	if err := ngram.NewBigramBuilder(vmap, 5).BuildStreaming(strings.NewReader(corpus), bigramPath); err != nil {
		t.Fatalf("BuildStreaming: %v", err)
	}
	bf, err := ngram.OpenBigram(bigramPath)
	if err != nil {
		t.Fatalf("OpenBigram: %v", err)
	}
	t.Cleanup(func() { bf.Close() })

	trigramPath := filepath.Join(dir, "out.trgc")
	if err := ngram.NewTrigramBuilder(vmap, 5, 100).Build(ngram.OpenFile(corpusPath), trigramPath); err != nil {
		t.Fatalf("Build: %v", err)
	}
	tf, err := ngram.OpenTrigram(trigramPath)
	if err != nil {
		t.Fatalf("OpenTrigram: %v", err)
	}
	t.Cleanup(func() { tf.Close() })

	return suggest.NewEngine(vmap, bf, tf)
}

func TestMemoryLeakBasic(t *testing.T) {
	iterations := []int{100, 500, 1000, 2500}

	for _, iterCount := range iterations {
		t.Run(fmt.Sprintf("iterations_%d", iterCount), func(t *testing.T) {
			runBasicMemoryTest(t, iterCount)
		})
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 1000},
		{workers: 2, iterationsPerWorker: 500},
		{workers: 4, iterationsPerWorker: 250},
	}

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", cfg.workers, cfg.iterationsPerWorker), func(t *testing.T) {
			runConcurrentMemoryTest(t, cfg.workers, cfg.iterationsPerWorker)
		})
	}
}

func runBasicMemoryTest(t *testing.T, iterations int) {
	engine := newTestEngine(t)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	for i := 0; i < iterations; i++ {
		for _, prefix := range testPrefixes {
			result := engine.Suggest(prefix, nil, 10)
			_ = result
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	memDelta := int64(final.Alloc - baseline.Alloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	totalOps := iterations * len(testPrefixes)
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		iterations, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func runConcurrentMemoryTest(t *testing.T, workers, iterationsPerWorker int) {
	engine := newTestEngine(t)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	var wg sync.WaitGroup
	var totalOps int64

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < iterationsPerWorker; iter++ {
				for _, prefix := range testPrefixes {
					result := engine.Suggest(prefix, nil, 10)
					_ = result
					totalOps++
				}
			}
		}()
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	memDelta := int64(final.Alloc - baseline.Alloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("workers=%d iter_per_worker=%d total_ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		workers, iterationsPerWorker, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
