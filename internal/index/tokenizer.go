package index

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// nonWordRegex matches any character that is neither a word character
// nor whitespace. Such characters are treated as separators. Word
// characters span all Unicode letters and digits, not just ASCII, so
// accented and non-Latin corpora tokenize whole.
var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// minTokenLength filters out short noise tokens ("a", "is", "of").
const minTokenLength = 3

// Tokenize normalizes text into lowercase index terms.
// It lowercases, replaces punctuation with spaces, splits on whitespace,
// and discards tokens shorter than three runes. Pure and deterministic:
// the same input always produces the same token sequence.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	cleaned := nonWordRegex.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}

	return tokens
}
