package textproc

import (
	"testing"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

func TestTokenizeNormalizes(t *testing.T) {
	tokens := Tokenize("The Quick-Brown Foxes!", 1)
	want := []Token{
		{Term: "quick", Position: 1},
		{Term: "brown", Position: 2},
		{Term: "fox", Position: 3},
	}
	if len(tokens) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(tokens), len(want), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeSkipsStopWordsAndShortWords(t *testing.T) {
	tokens := Tokenize("a is to x ok running", 1)
	if len(tokens) != 2 {
		t.Fatalf("token count = %d, want 2 (%v)", len(tokens), tokens)
	}
	if tokens[0].Term != "ok" || tokens[1].Term != "runn" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestBuildVectorWeightsAndOrder(t *testing.T) {
	vec := BuildVector("Search Ranking", "ranking quality matters")
	for _, e := range vec.Entries {
		for _, p := range e.Positions {
			if p.Pos <= 2 && p.Weight != tsvector.WeightA {
				t.Errorf("title position %d of %q has weight %v, want A", p.Pos, e.Lexeme, p.Weight)
			}
			if p.Pos > 2 && p.Weight != tsvector.WeightD {
				t.Errorf("body position %d of %q has weight %v, want D", p.Pos, e.Lexeme, p.Weight)
			}
		}
	}
	for i := 1; i < len(vec.Entries); i++ {
		if tsvector.CompareLexemes(vec.Entries[i-1].Lexeme, vec.Entries[i].Lexeme) >= 0 {
			t.Errorf("entries out of order: %q before %q", vec.Entries[i-1].Lexeme, vec.Entries[i].Lexeme)
		}
	}
}

func TestBuildVectorMergesTitleAndBodyTerm(t *testing.T) {
	vec := BuildVector("ranking", "ranking")
	if len(vec.Entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(vec.Entries))
	}
	if len(vec.Entries[0].Positions) != 2 {
		t.Fatalf("position count = %d, want 2", len(vec.Entries[0].Positions))
	}
	if vec.Entries[0].Positions[0].Weight != tsvector.WeightA ||
		vec.Entries[0].Positions[1].Weight != tsvector.WeightD {
		t.Errorf("positions = %v, want title A then body D", vec.Entries[0].Positions)
	}
}

func TestNormalizeMatchesDocumentStemming(t *testing.T) {
	doc := Tokenize("running", 1)
	if len(doc) != 1 {
		t.Fatalf("token count = %d, want 1", len(doc))
	}
	if got := Normalize("Running"); got != doc[0].Term {
		t.Errorf("Normalize = %q, document term = %q", got, doc[0].Term)
	}
}
