// Package gate decides whether a question belongs to the assistant's domain.
//
// The check is a static keyword gate: a question is in-domain when any term
// of a KeywordSet occurs in it as a whole word, ignoring case. It runs before
// any model call and never fails.
package gate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Word characters are Unicode letters, digits and underscore. RE2's \b only
// knows ASCII, so boundaries are spelled out with these classes.
const (
	wordClass    = `[\p{L}\p{N}_]`
	nonWordClass = `[^\p{L}\p{N}_]`
)

// physicsTerms is the default domain vocabulary.
var physicsTerms = []string{
	"velocity", "motion", "acceleration", "quantum", "thermodynamics", "gravity",
	"relativity", "electric", "magnetism", "wave", "optics", "force", "energy",
	"kinematics", "newton", "mass", "friction", "resistance", "voltage", "current",
	"circuit", "momentum", "projectile", "laws of motion", "mechanics", "physics",
}

// KeywordSet is an ordered, read-only set of domain terms. Each term is
// compiled once into a whole-word matcher, so a KeywordSet is safe for
// concurrent use.
type KeywordSet struct {
	terms    []string
	patterns []*regexp.Regexp
}

// NewKeywordSet builds a KeywordSet from terms. Terms are trimmed and
// lower-cased; blanks and duplicates are dropped and the first-seen order is
// kept. Words inside a multi-word term may be separated by any run of
// whitespace in the matched text.
func NewKeywordSet(terms ...string) *KeywordSet {
	k := &KeywordSet{}
	seen := make(map[string]struct{}, len(terms))

	for _, t := range terms {
		words := strings.Fields(strings.ToLower(t))
		if len(words) == 0 {
			continue
		}

		norm := strings.Join(words, " ")
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}

		k.terms = append(k.terms, norm)
		k.patterns = append(k.patterns, regexp.MustCompile(boundaryPattern(norm, strings.Join(quoted, `\s+`))))
	}

	return k
}

// boundaryPattern wraps body in word boundaries for term. A boundary next to
// a word character requires a non-word neighbour or the text edge; next to a
// non-word character it requires a word neighbour.
func boundaryPattern(term, body string) string {
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)

	before := wordClass
	if isWordRune(first) {
		before = `(?:^|` + nonWordClass + `)`
	}

	after := wordClass
	if isWordRune(last) {
		after = `(?:$|` + nonWordClass + `)`
	}

	return before + body + after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Physics returns the default physics KeywordSet.
func Physics() *KeywordSet {
	return NewKeywordSet(physicsTerms...)
}

// Terms returns a copy of the normalised terms in set order.
func (k *KeywordSet) Terms() []string {
	out := make([]string, len(k.terms))
	copy(out, k.terms)
	return out
}

// Len returns the number of terms in the set.
func (k *KeywordSet) Len() int {
	return len(k.terms)
}

// Match reports whether any term occurs in text as a whole word.
// Empty or whitespace-only text never matches.
func (k *KeywordSet) Match(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, p := range k.patterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// Matched returns every term that occurs in text as a whole word, in set order.
func (k *KeywordSet) Matched(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	for i, p := range k.patterns {
		if p.MatchString(lower) {
			out = append(out, k.terms[i])
		}
	}
	return out
}

// IsInDomain reports whether text passes the gate defined by k.
func IsInDomain(text string, k *KeywordSet) bool {
	return k.Match(text)
}
