package tsvector

import (
	"strings"
	"testing"
)

func TestParseSortsAndMerges(t *testing.T) {
	vec, err := Parse("dog:5 cat:3,1A cat:2")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := vec.String(); got != "cat:1A,2,3 dog:5" {
		t.Errorf("String() = %q, want %q", got, "cat:1A,2,3 dog:5")
	}
	if vec.Size() != 2 {
		t.Errorf("Size() = %d, want 2", vec.Size())
	}
}

func TestParsePositionless(t *testing.T) {
	vec, err := Parse("fish cat:1")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := vec.String(); got != "cat:1 fish" {
		t.Errorf("String() = %q, want %q", got, "cat:1 fish")
	}
	if got := vec.CntLen(); got != 2 {
		t.Errorf("CntLen() = %d, want 2", got)
	}
}

func TestParseClampsPosition(t *testing.T) {
	vec, err := Parse("far:99999")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := vec.Entries[0].Positions[0].Pos; got != MaxEntryPos-1 {
		t.Errorf("clamped position = %d, want %d", got, MaxEntryPos-1)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{":1", "cat:", "cat:x", "cat:-2"}
	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", input)
		}
	}
}

func TestParseWeights(t *testing.T) {
	vec, err := Parse("cat:1A,2b,3C,4d")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []WeightClass{WeightA, WeightB, WeightC, WeightD}
	for i, p := range vec.Entries[0].Positions {
		if p.Weight != want[i] {
			t.Errorf("position %d weight = %v, want %v", i, p.Weight, want[i])
		}
	}
}

func TestFindExact(t *testing.T) {
	vec, err := Parse("cat:1 catalog:2 dog:3")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	tests := []struct {
		operand string
		count   int
		lexeme  string
	}{
		{"cat", 1, "cat"},
		{"dog", 1, "dog"},
		{"cow", 0, ""},
		{"ca", 0, ""},
	}
	for _, tc := range tests {
		first, count := vec.Find(tc.operand, false)
		if count != tc.count {
			t.Errorf("Find(%q) count = %d, want %d", tc.operand, count, tc.count)
			continue
		}
		if count > 0 && vec.Entries[first].Lexeme != tc.lexeme {
			t.Errorf("Find(%q) lexeme = %q, want %q", tc.operand, vec.Entries[first].Lexeme, tc.lexeme)
		}
	}
}

func TestFindPrefix(t *testing.T) {
	vec, err := Parse("cab:1 cat:2 catalog:3 cathedral:4 dog:5")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	first, count := vec.Find("cat", true)
	if count != 3 {
		t.Fatalf("prefix Find count = %d, want 3", count)
	}
	for i := first; i < first+count; i++ {
		if !strings.HasPrefix(vec.Entries[i].Lexeme, "cat") {
			t.Errorf("entry %q does not carry prefix cat", vec.Entries[i].Lexeme)
		}
	}
}

func TestFindPrefixNoMatch(t *testing.T) {
	vec, err := Parse("cat:1 dog:2")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, count := vec.Find("fish", true); count != 0 {
		t.Errorf("prefix Find count = %d, want 0", count)
	}
}

func TestEntryPositionsSentinel(t *testing.T) {
	e := WordEntry{Lexeme: "bare"}
	post, virtual := EntryPositions(&e)
	if !virtual {
		t.Fatal("expected virtual positions for bare entry")
	}
	if len(post) != 1 || post[0].Pos != MaxEntryPos-1 || post[0].Weight != WeightD {
		t.Errorf("sentinel = %+v, want pos %d weight D", post[0], MaxEntryPos-1)
	}
}

func TestCompareLexemesOrder(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"cat", "cat", 0},
		{"cat", "cats", -1},
		{"cab", "cat", -1},
		{"dog", "cat", 1},
	}
	for _, tc := range tests {
		got := CompareLexemes(tc.a, tc.b)
		if (got < 0) != (tc.want < 0) || (got > 0) != (tc.want > 0) {
			t.Errorf("CompareLexemes(%q, %q) = %d, want sign of %d", tc.a, tc.b, got, tc.want)
		}
	}
}
