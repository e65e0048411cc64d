package ngram

import (
	"bufio"
	"io"
	"unicode"

	"github.com/arvindr/wordpilot/pkg/vocab"
)

const (
	rightSingleQuote = '’'
	leftSingleQuote  = '‘'
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '\'' || r == rightSingleQuote || r == leftSingleQuote
}

// tokenizeLine splits a line into raw candidate tokens: maximal runs of
// letters and apostrophe variants. Any other character (whitespace,
// digits, punctuation) isolates tokens from one another.
func tokenizeLine(line string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range line {
		if isWordRune(r) {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// ForEachChainRun streams r line by line, tokenizing and canonicalizing
// each line's words, resolving them against vmap, and calling fn once per
// maximal run of consecutive global ids. A run ends (and fn is called)
// whenever: the line ends, a token normalizes to empty, or a token is
// out-of-vocabulary — these are exactly the chain-breaking rules of §4.2.
// Single-element runs are still reported; callers that need pairs or
// triples simply ignore runs shorter than their window.
func ForEachChainRun(r io.Reader, vmap *vocab.Map, fn func(run []uint32)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		var run []uint32
		flushRun := func() {
			if len(run) > 0 {
				fn(run)
				run = nil
			}
		}
		for _, raw := range tokenizeLine(line) {
			canon := vocab.Canonicalize(raw)
			if canon == "" {
				flushRun()
				continue
			}
			id, ok := vmap.Lookup(canon)
			if !ok {
				flushRun()
				continue
			}
			run = append(run, id)
		}
		flushRun() // end-of-line always breaks
	}
	return scanner.Err()
}
