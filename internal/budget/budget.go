// Package budget estimates whether embedding inputs fit the input window of
// the embedding model they are meant for.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultInputTokens is assumed for models missing from the table.
const DefaultInputTokens = 8191

// knownInputTokens holds input limits of common embedding models.
var knownInputTokens = map[string]int{
	"text-embedding-3-small": 8191,
	"text-embedding-3-large": 8191,
	"text-embedding-ada-002": 8191,
	"nomic-embed-text":       8192,
	"mxbai-embed-large":      512,
	"all-minilm":             256,
	"bge-m3":                 8192,
}

// EstimateTokens converts text into an estimated token count at about four
// characters per token, rounding up.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / 4.0))
}

// EstimateTokensFromChars is EstimateTokens for a known character count.
func EstimateTokensFromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return int(math.Ceil(float64(chars) / 4.0))
}

// InputTokens returns the input limit of model. Names are matched
// case-insensitively, ignoring any "provider/" prefix and ":tag" suffix.
func InputTokens(model string) int {
	name := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name, _, _ = strings.Cut(name, ":")
	if v, ok := knownInputTokens[name]; ok {
		return v
	}
	return DefaultInputTokens
}

// Headroom is subtracted from the limit to absorb tokenizer variance: 5% of
// the limit, at least 32 tokens.
func Headroom(model string) int {
	h := int(math.Ceil(float64(InputTokens(model)) * 0.05))
	if h < 32 {
		return 32
	}
	return h
}

// Fits reports whether an input of chars characters fits model's window
// after headroom.
func Fits(model string, chars int) bool {
	return EstimateTokensFromChars(chars) <= InputTokens(model)-Headroom(model)
}
