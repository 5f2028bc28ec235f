package kb

import (
	"strings"
	"unicode/utf8"
)

// Fallback is returned when neither an entry nor a keyword matches.
const Fallback = "I don't have a precise answer in my FAQ. Try rephrasing the question or switch to provider mode with a Gemini API key to enable AI-powered answers."

// minTokenRunes is exclusive: only tokens longer than this take part in matching.
const minTokenRunes = 3

// Match answers a question from the knowledge base. It never fails.
//
// An entry matches when its whole lower-cased question is contained in the input,
// or when any of its tokens longer than three characters is. Entries are tried in
// order, then keywords in order. Token matching is loose and can shadow later
// entries; see Shadowed.
func (kb *KnowledgeBase) Match(question string) string {
	q := strings.ToLower(question)
	for _, e := range kb.entries {
		if entryMatches(e, q) {
			return e.Answer
		}
	}
	for _, k := range kb.keywords {
		if strings.Contains(q, k.Keyword) {
			return k.Answer
		}
	}
	return Fallback
}

func entryMatches(e Entry, q string) bool {
	eq := strings.ToLower(e.Question)
	if strings.Contains(q, eq) {
		return true
	}
	for _, tok := range strings.Fields(eq) {
		if utf8.RuneCountInString(tok) > minTokenRunes && strings.Contains(q, tok) {
			return true
		}
	}
	return false
}

// Shadowed returns the indexes of entries whose own question is answered by an
// earlier entry.
func (kb *KnowledgeBase) Shadowed() []int {
	var out []int
	for i, e := range kb.entries {
		if kb.Match(e.Question) != e.Answer {
			out = append(out, i)
		}
	}
	return out
}
