// Package analyzer implements free-text tokenization for the matching
// engine and the secret answer store's normalization, plus named-area
// distance for location scoring.
//
// Stopwords, the color/brand lexicons, the adjacency table, and the
// district table are closed, package-level data — the same "closed lookup
// table contributes a named signal" shape as the weight tables in
// internal/heuristics/privacy_score.go.
package analyzer

import (
	"strings"
	"unicode"
)

// minTokenLength is the retention threshold for ordinary tokens; shorter
// tokens are dropped unless they are a closed color/brand token, which is
// always retained regardless of length.
const minTokenLength = 3

// stopwords is the embedded English + Kinyarwanda stopword set.
var stopwords = buildSet([]string{
	// English
	"the", "a", "an", "and", "or", "of", "in", "on", "at", "to", "for",
	"with", "is", "was", "were", "are", "be", "been", "it", "its", "this",
	"that", "my", "your", "his", "her", "their", "our", "near", "by",
	"from", "i", "lost", "found", "had", "has", "have", "one",
	// Kinyarwanda
	"na", "ya", "mu", "ku", "kuri", "cyangwa", "ni", "iyi", "iyo", "yanjye",
	"yawe", "bye", "byo", "cyane", "ntabwo", "nta", "wa", "we", "ko",
})

// colorLexicon and brandLexicon are always retained regardless of length.
var colorLexicon = buildSet([]string{
	"red", "blue", "green", "black", "white", "gray", "grey", "pink",
	"gold", "silver", "tan", "brown", "navy", "teal", "jean",
})

var brandLexicon = buildSet([]string{
	"nike", "sony", "dell", "hp", "asus", "acer", "lg", "jbl", "bata",
	"rado", "itel", "vivo", "oppo", "xiaomi", "infinix", "rolex", "casio",
})

func buildSet(words []string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// ExtractKeywords tokenizes free text: strip punctuation,
// collapse whitespace, lowercase, drop stopwords, drop tokens shorter than
// minTokenLength unless they are a closed color/brand token, dedupe.
// categoryHint is currently unused by the scoring contract but accepted so
// callers can pass it through without a signature change later.
func ExtractKeywords(text string, categoryHint string) []string {
	_ = categoryHint

	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	lower := strings.ToLower(text)
	var b strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, tok := range strings.Fields(b.String()) {
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		_, isColor := colorLexicon[tok]
		_, isBrand := brandLexicon[tok]
		if !isColor && !isBrand && len(tok) < minTokenLength {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// OverlapCount returns how many tokens appear in both keyword sets.
func OverlapCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	count := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			count++
		}
	}
	return count
}

// Normalize applies the shared secret-answer normalization:
// lowercase, trim, strip punctuation to a single-space alphabet, collapse
// whitespace. Reused by internal/secretstore so both the analyzer's
// keyword tokens and the secret answers agree on what "the same text"
// means.
func Normalize(answer string) string {
	lower := strings.ToLower(strings.TrimSpace(answer))
	var b strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	return strings.Join(fields, " ")
}
