package token

import (
	"regexp"
	"strings"
)

const (
	ILLEGAL TokenType = iota

	// Delimiters
	LPAREN
	RPAREN

	// Operators
	BINARYOP
	COMPARISONOP

	// Identifiers + literals
	SYMBOL
	STRING
	NUMBER
	BOOLEAN
	DATE

	// Connectives
	AND
	OR
	NOT
)

type TokenType int

var names = [...]string{
	ILLEGAL:      "ILLEGAL",
	LPAREN:       "OpenBracket",
	RPAREN:       "ClosedBracket",
	BINARYOP:     "BinaryOperator",
	COMPARISONOP: "ComparisonOperator",
	SYMBOL:       "Symbol",
	STRING:       "String",
	NUMBER:       "Number",
	BOOLEAN:      "Boolean",
	DATE:         "Date",
	AND:          "And",
	OR:           "Or",
	NOT:          "Not",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(names) {
		return "ILLEGAL"
	}
	return names[t]
}

// IsLiteral reports whether tokens of this type can stand on the right side of an operator.
func (t TokenType) IsLiteral() bool {
	return t == STRING || t == NUMBER || t == BOOLEAN || t == DATE
}

type Token struct {
	Type TokenType

	// Literal is the token value: keywords upper-cased, strings unquoted and unescaped,
	// dates without their DATE(...)/TIMESTAMP(...) wrapper.
	Literal string

	// Raw is the exact source text of the token.
	Raw string

	// Start and End are character offsets into the query text, End exclusive.
	Start int
	End   int

	// Operator is the registry operator name for BINARYOP and COMPARISONOP tokens.
	Operator string
}

// SymbolPattern is the unanchored syntax of a queryable id.
const SymbolPattern = `[A-Za-z_][A-Za-z0-9_]+`

var symbolRe = regexp.MustCompile(`^` + SymbolPattern + `$`)

// keywords lex as their own token types and can never be read back as symbols.
var keywords = map[string]struct{}{
	"AND": {}, "OR": {}, "NOT": {}, "LIKE": {}, "BETWEEN": {}, "TRUE": {}, "FALSE": {},
}

// IsSymbol reports whether s lexes as a single Symbol token.
func IsSymbol(s string) bool {
	if !symbolRe.MatchString(s) {
		return false
	}
	_, reserved := keywords[strings.ToUpper(s)]
	return !reserved
}
