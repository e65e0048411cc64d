package userhistory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/arvindr/wordpilot/pkg/vocab"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Resolver resolves a canonical token to a global id from the base
// vocabulary, independent of the user lexicon. Learn falls back to the
// lexicon's own GetOrCreate when a Resolver reports no match.
type Resolver func(canon string) (uint32, bool)

// History is the mutable per-user adaptive model (§3 "UserHistory", §4.6):
// a personal lexicon plus a time-decaying bigram tracker per previous id.
// Owned by one session; History takes its own RWMutex so the msgpack
// server can still serialize concurrent access per §5 if ever asked to
// serve more than one session out of the same process.
type History struct {
	mu    sync.RWMutex
	clock Clock
	topN  int

	SessionID string                  `json:"session_id"`
	Lexicon   *UserLexicon            `json:"lexicon"`
	Bigrams   map[uint32]*TopNTracker `json:"bigrams"`
}

// New creates an empty history with its own session id.
func New(topN int, clock Clock) *History {
	if clock == nil {
		clock = RealClock{}
	}
	return &History{
		clock:     clock,
		topN:      topN,
		SessionID: uuid.NewString(),
		Lexicon:   NewUserLexicon(),
		Bigrams:   make(map[uint32]*TopNTracker),
	}
}

// Learn tokenizes and canonicalizes text, resolving each token to a global
// id via resolve or, failing that, the user lexicon's GetOrCreate (§4.6).
// A resolution failure (lexicon full) breaks the chain and continues with
// the next token, per §7; it is not an error the caller needs to handle
// specially, so Learn never returns one for that case.
func (h *History) Learn(text string, resolve Resolver) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	var prev uint32
	havePrev := false

	for _, raw := range vocab.Tokenize(text) {
		canon := vocab.CanonicalizeNFC(raw)
		if canon == "" {
			havePrev = false
			continue
		}

		var id uint32
		if resolve != nil {
			if gid, ok := resolve(canon); ok {
				id = gid
			} else {
				gid, err := h.Lexicon.GetOrCreate(canon, now)
				if err != nil {
					havePrev = false
					continue
				}
				id = gid
			}
		} else {
			gid, err := h.Lexicon.GetOrCreate(canon, now)
			if err != nil {
				havePrev = false
				continue
			}
			id = gid
		}

		if havePrev {
			tracker, ok := h.Bigrams[prev]
			if !ok {
				tracker = NewTopNTracker(h.topN)
				h.Bigrams[prev] = tracker
			}
			tracker.Observe(id, now)
		}
		prev = id
		havePrev = true
	}
	return nil
}

// Predict returns prevID's tracked successors ranked by current effective
// score, best-first, truncated to the tracker's TopN (§4.6).
func (h *History) Predict(prevID uint32) []Prediction {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tracker, ok := h.Bigrams[prevID]
	if !ok {
		return nil
	}
	return tracker.Predict(h.clock.Now())
}

// LookupPrefix canonicalizes prefix and returns the user lexicon's matching
// entries, best-first by current score (§4.6).
func (h *History) LookupPrefix(prefix string, limit int) []LexiconEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	canon := vocab.CanonicalizeNFC(prefix)
	return h.Lexicon.LookupPrefix(canon, limit, h.clock.Now())
}

// Accept marks an already-learned word as explicitly chosen (not merely
// typed through), bumping its WordStat accept bonus. Words that only exist
// in the base vocabulary (not the user lexicon) have no WordStat to bump
// and are silently ignored.
func (h *History) Accept(word string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	canon := vocab.CanonicalizeNFC(word)
	if id, ok := h.Lexicon.LookupExact(canon); ok {
		h.Lexicon.Accept(id, h.clock.Now())
	}
}

// Save atomically (temp file + rename, §6) writes the history to path as
// JSON. A save failure is propagated to the caller per §7.
func (h *History) Save(path string) error {
	h.mu.RLock()
	data, err := json.MarshalIndent(h, "", "  ")
	h.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".userhistory-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads a history from path. Per §7, a missing file or a
// deserialization failure both yield an empty, freshly-seeded history
// rather than an error: only Save propagates I/O failures to the caller.
func Load(path string, topN int, clock Clock) *History {
	if clock == nil {
		clock = RealClock{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return New(topN, clock)
	}

	h := &History{clock: clock, topN: topN}
	if err := json.Unmarshal(data, h); err != nil {
		log.Warnf("userhistory: discarding corrupt history at %s: %v", path, err)
		return New(topN, clock)
	}
	if h.Lexicon == nil {
		h.Lexicon = NewUserLexicon()
	}
	if h.Bigrams == nil {
		h.Bigrams = make(map[uint32]*TopNTracker)
	}
	for _, tracker := range h.Bigrams {
		if tracker.TopN == 0 {
			tracker.TopN = topN
		}
	}
	if h.SessionID == "" {
		h.SessionID = uuid.NewString()
	}
	return h
}
