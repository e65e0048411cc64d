package suggest

import (
	"sort"
	"strings"

	"github.com/arvindr/wordpilot/pkg/ngram"
	"github.com/arvindr/wordpilot/pkg/userhistory"
	"github.com/arvindr/wordpilot/pkg/vocab"
)

// Source reports which artifact (if any) produced a Suggest result's base
// edges, before gating and the user-history merge.
type Source int

const (
	// SourceNone means neither trigram nor bigram returned a hit.
	SourceNone Source = iota
	// SourceBigram means the result came from a bigram fallback lookup.
	SourceBigram
	// SourceTrigram means the result came from a trigram hit.
	SourceTrigram
)

// String renders the source for logging and wire responses.
func (s Source) String() string {
	switch s {
	case SourceTrigram:
		return "trigram"
	case SourceBigram:
		return "bigram"
	default:
		return "none"
	}
}

// Suggestion is one ranked continuation: a display word, its resolved id
// (global or user-lexicon), and its weight (artifact weight or user score).
type Suggestion struct {
	Word   string
	ID     uint32
	Weight uint16
}

// Result is the full output of one Suggest call.
type Result struct {
	Suggestions []Suggestion
	Source      Source
}

// Engine performs the stateless half of suggest() (§4.5): tokenize,
// canonicalize, try trigram, fall back to bigram, gate. It holds no mutable
// state of its own; the per-user merge is driven by a caller-supplied
// History so one Engine can safely back many concurrent sessions.
type Engine struct {
	Vocab   *vocab.Map
	Bigram  *ngram.BigramFile
	Trigram *ngram.TrigramFile

	// FunctionWords is the gating list applied after source selection.
	FunctionWords map[string]struct{}
	// MergeThreshold is the minimum user-history score an edge must clear
	// to be interleaved into the result (§4.5 step 5).
	MergeThreshold uint16
	// DefaultLimit is used when Suggest is called with limit <= 0.
	DefaultLimit int
}

// NewEngine creates an engine over a canonical vocabulary and its n-gram
// artifacts. trigram may be nil if no trigram cache was built.
func NewEngine(vmap *vocab.Map, bigram *ngram.BigramFile, trigram *ngram.TrigramFile) *Engine {
	return &Engine{
		Vocab:         vmap,
		Bigram:        bigram,
		Trigram:       trigram,
		FunctionWords: DefaultFunctionWords(),
		DefaultLimit:  5,
	}
}

// Suggest implements §4.5 end to end. history may be nil, in which case
// step 5 (user-history merge) is skipped.
func (e *Engine) Suggest(prefix string, history *userhistory.History, limit int) Result {
	if limit <= 0 {
		limit = e.DefaultLimit
	}
	if limit <= 0 {
		limit = 5
	}

	tokens := strings.Fields(prefix)

	var lastID, prevID uint32
	haveLast, havePrev := false, false

	if n := len(tokens); n >= 1 {
		if id, ok := e.resolveToken(tokens[n-1]); ok {
			lastID, haveLast = id, true
		}
	}
	if n := len(tokens); n >= 2 {
		if id, ok := e.resolveToken(tokens[n-2]); ok {
			prevID, havePrev = id, true
		}
	}

	var edges []ngram.Edge
	source := SourceNone

	if haveLast && havePrev && e.Trigram != nil {
		if hit := e.Trigram.Lookup(prevID, lastID); len(hit) > 0 {
			edges = hit
			source = SourceTrigram
		}
	}
	if len(edges) == 0 && haveLast && e.Bigram != nil {
		if hit := e.Bigram.Lookup(lastID); len(hit) > 0 {
			edges = hit
			source = SourceBigram
		}
	}

	suggestions := make([]Suggestion, 0, len(edges))
	for _, edge := range edges {
		word := e.Vocab.Word(edge.NextID)
		if word == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{Word: word, ID: edge.NextID, Weight: edge.Weight})
	}

	suggestions = Gate(suggestions, e.FunctionWords)

	if history != nil && haveLast {
		suggestions = e.mergeUserHistory(suggestions, history, lastID)
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return Result{Suggestions: suggestions, Source: source}
}

// resolveToken canonicalizes a raw token and looks it up in the base
// vocabulary. An out-of-vocabulary token (§8 scenario 3) simply reports
// false; it is never an error.
func (e *Engine) resolveToken(raw string) (uint32, bool) {
	canon := vocab.Canonicalize(raw)
	if canon == "" {
		return 0, false
	}
	return e.Vocab.Lookup(canon)
}

// mergeUserHistory interleaves history's predictions for prevID at the top
// by score, skipping anything already present and anything below
// MergeThreshold (§4.5 step 5).
func (e *Engine) mergeUserHistory(base []Suggestion, history *userhistory.History, prevID uint32) []Suggestion {
	preds := history.Predict(prevID)
	if len(preds) == 0 {
		return base
	}

	seen := make(map[uint32]struct{}, len(base))
	for _, s := range base {
		seen[s.ID] = struct{}{}
	}

	extra := make([]Suggestion, 0, len(preds))
	for _, p := range preds {
		if p.Score < e.MergeThreshold {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		word := e.resolveDisplayWord(p.ID, history)
		if word == "" {
			continue
		}
		extra = append(extra, Suggestion{Word: word, ID: p.ID, Weight: p.Score})
	}
	if len(extra) == 0 {
		return base
	}
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].Weight > extra[j].Weight })
	return append(extra, base...)
}

// resolveDisplayWord turns an id back into text, routing to the user
// lexicon for synthetic ids and the base vocabulary otherwise (§3).
func (e *Engine) resolveDisplayWord(id uint32, history *userhistory.History) string {
	if id >= userhistory.UserIDMin {
		return history.Lexicon.Word(id)
	}
	return e.Vocab.Word(id)
}
