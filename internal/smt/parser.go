package smt

import "fmt"

// Parse reads every top-level s-expression of input into a fresh arena.
// Each top-level form becomes a root, in source order.
func Parse(input string) (*ClauseSet, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	return parseTokens(tokens)
}

// ParseTerm parses exactly one s-expression.
func ParseTerm(input string) (*ClauseSet, NodeID, error) {
	cs, err := Parse(input)
	if err != nil {
		return nil, NoNode, err
	}
	if cs.Len() != 1 {
		return nil, NoNode, fmt.Errorf("expected one term, got %d", cs.Len())
	}
	return cs, cs.Root(0), nil
}

func parseTokens(tokens []Token) (*ClauseSet, error) {
	cs := NewClauseSet()
	var open []NodeID

	for _, tok := range tokens {
		parent := NoNode
		if len(open) > 0 {
			parent = open[len(open)-1]
		}

		switch tok.Type {
		case TokenEOF:
			if len(open) > 0 {
				return nil, fmt.Errorf("line %d col %d: %d unclosed parenthesis", tok.Line, tok.Col, len(open))
			}
			return cs, nil

		case TokenLParen:
			id := cs.addList(parent)
			if parent == NoNode {
				cs.roots = append(cs.roots, id)
			}
			open = append(open, id)

		case TokenRParen:
			if len(open) == 0 {
				return nil, fmt.Errorf("line %d col %d: unexpected ')'", tok.Line, tok.Col)
			}
			open = open[:len(open)-1]

		case TokenSymbol, TokenString:
			id := cs.addAtom(tok.Value, parent)
			if parent == NoNode {
				cs.roots = append(cs.roots, id)
			}

		default:
			return nil, fmt.Errorf("unexpected token type: %v", tok.Type)
		}
	}

	return nil, fmt.Errorf("missing EOF token")
}
