package tsvector

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the canonical text form of a vector: whitespace-separated
// lexemes, each optionally followed by a colon and a comma-separated
// position list. Positions may carry a trailing weight letter A..D, for
// example "cat:1A,3 dog:5 fish". Entries are sorted and merged, positions
// above the representable maximum are clamped.
func Parse(s string) (*TSVector, error) {
	var entries []WordEntry
	for _, field := range strings.Fields(s) {
		lexeme := field
		var poslist string
		if i := strings.IndexByte(field, ':'); i >= 0 {
			lexeme, poslist = field[:i], field[i+1:]
			if poslist == "" {
				return nil, fmt.Errorf("tsvector: empty position list in %q", field)
			}
		}
		if lexeme == "" {
			return nil, fmt.Errorf("tsvector: empty lexeme in %q", field)
		}
		entry := WordEntry{Lexeme: lexeme}
		if poslist != "" {
			for _, ps := range strings.Split(poslist, ",") {
				p, err := parsePosition(ps)
				if err != nil {
					return nil, err
				}
				entry.Positions = append(entry.Positions, p)
			}
		}
		entries = append(entries, entry)
	}
	return &TSVector{Entries: sortEntries(entries)}, nil
}

func parsePosition(s string) (Position, error) {
	weight := WeightD
	switch {
	case s == "":
		return Position{}, fmt.Errorf("tsvector: empty position")
	case strings.HasSuffix(s, "A") || strings.HasSuffix(s, "a"):
		weight, s = WeightA, s[:len(s)-1]
	case strings.HasSuffix(s, "B") || strings.HasSuffix(s, "b"):
		weight, s = WeightB, s[:len(s)-1]
	case strings.HasSuffix(s, "C") || strings.HasSuffix(s, "c"):
		weight, s = WeightC, s[:len(s)-1]
	case strings.HasSuffix(s, "D") || strings.HasSuffix(s, "d"):
		weight, s = WeightD, s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Position{}, fmt.Errorf("tsvector: bad position %q", s)
	}
	if n > MaxEntryPos-1 {
		n = MaxEntryPos - 1
	}
	return Position{Pos: uint16(n), Weight: weight}, nil
}

// String renders the vector back into its text form. Positions keep their
// weight letter except for the default class D, which is omitted.
func (t *TSVector) String() string {
	var b strings.Builder
	for i := range t.Entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		e := &t.Entries[i]
		b.WriteString(e.Lexeme)
		for j, p := range e.Positions {
			if j == 0 {
				b.WriteByte(':')
			} else {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(p.Pos)))
			if p.Weight != WeightD {
				b.WriteString(p.Weight.String())
			}
		}
	}
	return b.String()
}
