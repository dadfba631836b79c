// Package textproc turns raw document text into the postings structure the
// ranker consumes. It lower-cases input, splits on non-alphanumeric
// boundaries, removes stop-words, and applies a simple suffix-based
// stemmer. Title positions carry the highest weight class, body positions
// the lowest.
package textproc

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into a slice of stemmed, lowercased Tokens with
// stop-words removed. Positions start at startPos and count accepted
// tokens only.
func Tokenize(text string, startPos int) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := startPos
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Normalize applies the same lower-casing and stemming used for document
// text to a single query term, so query operands match stored lexemes.
func Normalize(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ""
	}
	return stem(term)
}

// BuildVector tokenizes a title and body into one vector. Title tokens
// are weighted class A and start at position 1; body tokens continue the
// position sequence at class D.
func BuildVector(title, body string) *tsvector.TSVector {
	titleTokens := Tokenize(title, 1)
	bodyStart := 1 + len(titleTokens)
	bodyTokens := Tokenize(body, bodyStart)

	entries := make(map[string][]tsvector.Position, len(titleTokens)+len(bodyTokens))
	add := func(tokens []Token, weight tsvector.WeightClass) {
		for _, tok := range tokens {
			pos := tok.Position
			if pos > tsvector.MaxEntryPos-1 {
				pos = tsvector.MaxEntryPos - 1
			}
			entries[tok.Term] = append(entries[tok.Term], tsvector.Position{
				Pos:    uint16(pos),
				Weight: weight,
			})
		}
	}
	add(titleTokens, tsvector.WeightA)
	add(bodyTokens, tsvector.WeightD)

	vec := &tsvector.TSVector{Entries: make([]tsvector.WordEntry, 0, len(entries))}
	for term, positions := range entries {
		vec.Entries = append(vec.Entries, tsvector.WordEntry{Lexeme: term, Positions: positions})
	}
	sortVector(vec)
	return vec
}

func sortVector(vec *tsvector.TSVector) {
	es := vec.Entries
	for i := range es {
		ps := es[i].Positions
		sort.Slice(ps, func(a, b int) bool { return ps[a].Pos < ps[b].Pos })
		if len(ps) > tsvector.MaxNumPos {
			es[i].Positions = ps[:tsvector.MaxNumPos]
		}
	}
	sort.Slice(es, func(a, b int) bool {
		return tsvector.CompareLexemes(es[a].Lexeme, es[b].Lexeme) < 0
	})
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	suffixes := []struct {
		suffix      string
		replacement string
		minLen      int
	}{
		{"ational", "ate", 2},
		{"tional", "tion", 2},
		{"encies", "ence", 2},
		{"ances", "ance", 2},
		{"ments", "ment", 2},
		{"izing", "ize", 2},
		{"ating", "ate", 2},
		{"iness", "y", 2},
		{"ously", "ous", 2},
		{"ively", "ive", 2},
		{"eness", "ene", 2},
		{"tion", "t", 3},
		{"sion", "s", 3},
		{"ying", "y", 2},
		{"ling", "l", 3},
		{"ies", "y", 2},
		{"ing", "", 3},
		{"ers", "er", 2},
		{"est", "", 3},
		{"ful", "", 3},
		{"ous", "", 3},
		{"ess", "", 3},
		{"ble", "", 3},
		{"ed", "", 3},
		{"er", "", 3},
		{"ly", "", 3},
		{"es", "", 3},
		{"ss", "ss", 2},
		{"s", "", 3},
	}
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
