// Package tsquery models boolean full-text queries as a postfix item
// sequence over lexeme operands, mirroring how the companion tsvector
// package models documents. The last item of the sequence is the root of
// the expression tree.
package tsquery

import (
	"sort"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

// Operator is a boolean connective in a query tree.
type Operator uint8

const (
	OpNot Operator = iota + 1
	OpAnd
	OpOr
	OpPhrase
)

// ItemType discriminates the two kinds of postfix items.
type ItemType uint8

const (
	ItemVal ItemType = iota
	ItemOper
)

// Operand is a query leaf: a lexeme to look up, an optional prefix flag,
// and an optional weight-class restriction mask (bit 1<<class). A zero
// mask means any weight. The mask is carried for completeness but the
// ranking kernels do not consult it.
type Operand struct {
	Lexeme  string
	Prefix  bool
	Weights uint8
}

// Item is one element of the postfix sequence: either a VAL wrapping an
// Operand or an OPR wrapping an Operator. Distance is meaningful only for
// OpPhrase.
type Item struct {
	Type     ItemType
	Operand  Operand
	Oper     Operator
	Distance int
}

// TSQuery is a well-formed postfix sequence; Items[len(Items)-1] is the
// root. It is read-only once built.
type TSQuery struct {
	Items []Item
}

// Size returns the number of postfix items.
func (q *TSQuery) Size() int {
	return len(q.Items)
}

// Root returns the last item, or nil for an empty query.
func (q *TSQuery) Root() *Item {
	if len(q.Items) == 0 {
		return nil
	}
	return &q.Items[len(q.Items)-1]
}

// UniqueOperands collects every VAL item, sorts the operands by lexeme
// byte order and drops duplicates pointing at identical lexeme bytes. The
// first occurrence of each lexeme wins, so its prefix flag is kept.
func (q *TSQuery) UniqueOperands() []Operand {
	ops := make([]Operand, 0, len(q.Items))
	for i := range q.Items {
		if q.Items[i].Type == ItemVal {
			ops = append(ops, q.Items[i].Operand)
		}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return tsvector.CompareLexemes(ops[i].Lexeme, ops[j].Lexeme) < 0
	})
	out := ops[:0]
	for _, op := range ops {
		if len(out) > 0 && out[len(out)-1].Lexeme == op.Lexeme {
			continue
		}
		out = append(out, op)
	}
	return out
}

// Evaluate runs the postfix sequence as a stack machine, resolving each
// VAL item through pred, which receives the item's index. When calcNot is
// false every NOT sub-expression is forced true, giving the monotone
// evaluation used by forward cover scans; when true, NOT is honoured.
// A malformed sequence evaluates to false.
func (q *TSQuery) Evaluate(calcNot bool, pred func(itemIndex int) bool) bool {
	if len(q.Items) == 0 {
		return false
	}
	stack := make([]bool, 0, len(q.Items))
	for i := range q.Items {
		item := &q.Items[i]
		switch item.Type {
		case ItemVal:
			stack = append(stack, pred(i))
		case ItemOper:
			switch item.Oper {
			case OpNot:
				if len(stack) < 1 {
					return false
				}
				if calcNot {
					stack[len(stack)-1] = !stack[len(stack)-1]
				} else {
					stack[len(stack)-1] = true
				}
			case OpAnd, OpPhrase:
				if len(stack) < 2 {
					return false
				}
				b := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				stack[len(stack)-1] = stack[len(stack)-1] && b
			case OpOr:
				if len(stack) < 2 {
					return false
				}
				b := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				stack[len(stack)-1] = stack[len(stack)-1] || b
			}
		}
	}
	if len(stack) != 1 {
		return false
	}
	return stack[0]
}
