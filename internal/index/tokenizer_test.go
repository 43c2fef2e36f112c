package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits",
			input: "Hybrid Retrieval Engine",
			want:  []string{"hybrid", "retrieval", "engine"},
		},
		{
			name:  "punctuation becomes separator",
			input: "cats, dogs; and-birds!",
			want:  []string{"cats", "dogs", "and", "birds"},
		},
		{
			name:  "short tokens discarded",
			input: "a an is of the cat",
			want:  []string{"the", "cat"},
		},
		{
			name:  "digits kept",
			input: "error 404 not found",
			want:  []string{"error", "404", "not", "found"},
		},
		{
			name:  "underscores are word characters",
			input: "user_id lookup",
			want:  []string{"user_id", "lookup"},
		},
		{
			name:  "accented words stay whole",
			input: "café résumé",
			want:  []string{"café", "résumé"},
		},
		{
			name:  "accented word with punctuation",
			input: "naïve!",
			want:  []string{"naïve"},
		},
		{
			name:  "non-latin script",
			input: "поиск документов",
			want:  []string{"поиск", "документов"},
		},
		{
			name:  "short token filter counts runes not bytes",
			input: "où là no héé",
			want:  []string{"héé"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only punctuation",
			input: "!!! ... ???",
			want:  []string{},
		},
		{
			name:  "whitespace variants",
			input: "one\ttwo\nthree  four",
			want:  []string{"one", "two", "three", "four"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	input := "The Quick, Brown Fox! Jumps over lazy-dogs (again)."

	first := Tokenize(input)
	second := Tokenize(strings.Join(first, " "))

	assert.Equal(t, first, second)
}

func TestTokenize_OutputProperties(t *testing.T) {
	tokens := Tokenize("Mixed CASE with punct!!! and a b cd efg 12 345")

	for _, tok := range tokens {
		assert.Equal(t, strings.ToLower(tok), tok, "token must be lowercase: %q", tok)
		assert.GreaterOrEqual(t, len(tok), 3, "token too short: %q", tok)
		assert.NotContains(t, tok, " ")
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	input := "determinism matters for index rebuilds"
	assert.Equal(t, Tokenize(input), Tokenize(input))
}
