// Package classifier implements the hybrid category classification pipeline:
// deterministic keyword rules layered in front of a pre-trained statistical
// text classifier, composed by a Resolver with a validation/defaulting policy.
//
// The package is deliberately pure: no I/O beyond artifact loading at
// construction, no logging, and no mutation of shared state. Callers decide
// how to record outcomes (see RecordClassification).
package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining marks after NFD decomposition so that
// "drenação" and "drenacao" tokenize identically. Safe for concurrent use.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// wordRE extracts letter-led tokens, allowing trailing digits ("route66").
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// normalizeText lower-cases s and folds diacritics. All classification paths
// (keyword rules and the statistical model) consume this normalized form.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(foldTransform, s); err == nil {
		return folded
	}
	return s
}

// tokenize splits normalized text into word tokens for the model vectorizer.
func tokenize(s string) []string {
	return wordRE.FindAllString(normalizeText(s), -1)
}
