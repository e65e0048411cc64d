package suggest

import (
	"bufio"
	"os"
	"strings"
)

// DefaultFunctionWords returns the built-in English gating list (§4.5): a
// small set of closed-class words that are pulled to the front of a result
// list without having their weight changed. The gating set is a field of
// Engine, so other languages pass their own set to Engine rather than
// hard-coding one here.
func DefaultFunctionWords() map[string]struct{} {
	words := []string{
		"a", "an", "the",
		"to", "of", "in", "on", "at", "for", "with", "as", "by", "from",
		"and", "or", "but", "if", "so",
		"is", "are", "was", "were", "be", "been", "being", "am",
		"it", "its", "this", "that", "these", "those",
		"i", "you", "he", "she", "we", "they",
		"my", "your", "his", "her", "our", "their",
		"do", "does", "did", "have", "has", "had", "will", "would",
		"can", "could", "should", "not",
	}
	return newWordSet(words)
}

func newWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// LoadFunctionWords reads a gating word list, one canonical word per line,
// for languages whose function-word set differs from the English default.
func LoadFunctionWords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Gate stable-partitions suggestions so any entry in functionWords appears
// first, preserving relative order within each group (§4.5, §9): a
// reordering only, never a weight boost.
func Gate(suggestions []Suggestion, functionWords map[string]struct{}) []Suggestion {
	if len(functionWords) == 0 || len(suggestions) == 0 {
		return suggestions
	}
	gated := make([]Suggestion, 0, len(suggestions))
	rest := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if _, ok := functionWords[s.Word]; ok {
			gated = append(gated, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(gated, rest...)
}
