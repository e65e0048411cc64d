/*
Package suggest implements the online hybrid suggestion engine: tokenize a
typed prefix, canonicalize it, try a trigram lookup, fall back to a bigram
lookup, gate function words to the front, and merge in a per-user adaptive
model.

# Pipeline

Suggest is strictly ordered: trigram is attempted before bigram, gating
is applied after source selection, and the user-history merge is applied
last and is deterministic given a fixed clock reading.

	result := engine.Suggest("i want", history, 5)
	// result.Source is Trigram if the (i,want) pair was cached, else
	// Bigram if "want" alone has successors, else None.

# Gating

Gating is a stable partition, not a score boost: function words already
present in a result list are moved to the front in their existing relative
order. It never invents a weight the engine hasn't measured.

# Merge

Service composes a stateless Engine (bound to read-only, memory-mapped
artifacts) with one user's mutable History, the single surface
pkg/server and internal/cli depend on.
*/
package suggest

import "github.com/arvindr/wordpilot/pkg/userhistory"

// SuggestionService is the surface pkg/server and internal/cli depend on.
type SuggestionService interface {
	Suggest(prefix string, limit int) Result
	Learn(text string) error
	Accept(word string)
	Stats() map[string]int
}

// Service composes a stateless Engine with one user's mutable History.
type Service struct {
	Engine  *Engine
	History *userhistory.History
}

// NewService pairs an engine with a user history.
func NewService(engine *Engine, history *userhistory.History) *Service {
	return &Service{Engine: engine, History: history}
}

// Suggest delegates to Engine.Suggest, supplying the owned history.
func (s *Service) Suggest(prefix string, limit int) Result {
	return s.Engine.Suggest(prefix, s.History, limit)
}

// Learn resolves tokens against the engine's base vocabulary first,
// falling back to the user lexicon for anything out of vocabulary.
func (s *Service) Learn(text string) error {
	return s.History.Learn(text, s.Engine.Vocab.Lookup)
}

// Accept forwards an explicit pick to the user history.
func (s *Service) Accept(word string) {
	s.History.Accept(word)
}

// Stats reports basic introspection numbers: base vocabulary size, loaded
// artifact shape, and live user-lexicon size.
func (s *Service) Stats() map[string]int {
	stats := map[string]int{
		"vocab_size": s.Engine.Vocab.VocabSize(),
		"user_words": s.History.Lexicon.Len(),
	}
	if s.Engine.Bigram != nil {
		stats["edges_count"] = s.Engine.Bigram.EdgesCount
	}
	if s.Engine.Trigram != nil {
		stats["num_pairs"] = s.Engine.Trigram.NumPairs
	}
	return stats
}
