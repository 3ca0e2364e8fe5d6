package smt

import (
	"fmt"
	"strings"
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenSymbol
	TokenString
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenSymbol:
		return "Symbol"
	case TokenString:
		return "String"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// Lex splits SMT-LIB text into tokens. Comments are dropped.
// Quoted symbols (|...|) and string literals keep their delimiters
// so that printing a parsed term reproduces the source spelling.
func Lex(input string) ([]Token, error) {
	var tokens []Token

	line, col := 1, 1
	i := 0

	advance := func(c byte) {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i++
	}

	for i < len(input) {
		c := input[i]

		switch {
		case isWhitespace(c):
			advance(c)

		case c == ';':
			for i < len(input) && input[i] != '\n' {
				advance(input[i])
			}

		case c == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Value: "(", Line: line, Col: col})
			advance(c)

		case c == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")", Line: line, Col: col})
			advance(c)

		case c == '|':
			startLine, startCol := line, col
			var sb strings.Builder
			sb.WriteByte(c)
			advance(c)
			for i < len(input) && input[i] != '|' {
				sb.WriteByte(input[i])
				advance(input[i])
			}
			if i >= len(input) {
				return nil, fmt.Errorf("line %d col %d: quoted symbol is not terminated", startLine, startCol)
			}
			sb.WriteByte('|')
			advance('|')
			tokens = append(tokens, Token{Type: TokenSymbol, Value: sb.String(), Line: startLine, Col: startCol})

		case c == '"':
			startLine, startCol := line, col
			var sb strings.Builder
			sb.WriteByte(c)
			advance(c)
			closed := false
			for i < len(input) {
				if input[i] == '"' {
					// "" is an escaped quote inside a string literal
					if i+1 < len(input) && input[i+1] == '"' {
						sb.WriteString(`""`)
						advance('"')
						advance('"')
						continue
					}
					sb.WriteByte('"')
					advance('"')
					closed = true
					break
				}
				sb.WriteByte(input[i])
				advance(input[i])
			}
			if !closed {
				return nil, fmt.Errorf("line %d col %d: string literal is not terminated", startLine, startCol)
			}
			tokens = append(tokens, Token{Type: TokenString, Value: sb.String(), Line: startLine, Col: startCol})

		default:
			startCol := col
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				advance(input[i])
			}
			tokens = append(tokens, Token{Type: TokenSymbol, Value: input[start:i], Line: line, Col: startCol})
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Line: line, Col: col})
	return tokens, nil
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isWhitespace(c) || c == '(' || c == ')' || c == ';' || c == '"' || c == '|'
}

// Unquote strips the |...| quoting of a symbol, if any.
func Unquote(symbol string) string {
	if len(symbol) >= 2 && symbol[0] == '|' && symbol[len(symbol)-1] == '|' {
		return symbol[1 : len(symbol)-1]
	}
	return symbol
}
