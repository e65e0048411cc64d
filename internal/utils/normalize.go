package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeStrategy picks the folding rule applied to a raw token before it
// is looked up against a vocabulary. Different corpora want different rules:
// English keeps apostrophes so contractions survive folding, a syllable
// based variant only wants lowercasing with no punctuation filter at all.
type NormalizeStrategy int

const (
	// StrategyAlphaApostrophe lowercases, keeps only letters and ASCII
	// apostrophe, and folds the two typographic apostrophes onto it.
	StrategyAlphaApostrophe NormalizeStrategy = iota
	// StrategyLowercaseOnly lowercases and keeps every code point,
	// no punctuation filter.
	StrategyLowercaseOnly
)

const (
	rightSingleQuote = '’'
	leftSingleQuote  = '‘'
)

// CanonToken folds a raw token into its canonical form under the given
// strategy. When nfc is true the token is first NFC-normalized, which the
// user-history path requires before folding.
func CanonToken(s string, strategy NormalizeStrategy, nfc bool) string {
	if nfc {
		s = norm.NFC.String(s)
	}
	switch strategy {
	case StrategyLowercaseOnly:
		return strings.ToLower(s)
	default:
		return foldAlphaApostrophe(s)
	}
}

func foldAlphaApostrophe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case rightSingleQuote, leftSingleQuote:
			b.WriteByte('\'')
			continue
		case '\'':
			b.WriteByte('\'')
			continue
		}
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CreateRankList creates a slice of ranks based on position.
// The rank starts at 1 for the first item and increments for subsequent items.
// Useful for ranking items that are already sorted.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := 0; i < count; i++ {
		ranks[i] = uint16(i + 1)
	}
	return ranks
}
