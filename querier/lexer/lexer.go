package lexer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
	"github.com/thisisjab/oafilter/querier/token"
)

// matcher is one entry of the ordered token specification list.
// A matcher with skip set consumes input without emitting a token.
type matcher struct {
	re   *regexp.Regexp
	typ  token.TokenType
	skip bool
}

// matchers are tried in order at every cursor position; the first match wins.
// Every pattern is anchored so a match further down the input never counts.
var matchers = []matcher{
	{re: regexp.MustCompile(`^\s+`), skip: true},
	{re: regexp.MustCompile(`^\(`), typ: token.LPAREN},
	{re: regexp.MustCompile(`^\)`), typ: token.RPAREN},
	{re: regexp.MustCompile(`^(?:<>|<=|>=|=|<|>)`), typ: token.BINARYOP},
	{re: regexp.MustCompile(`(?i)^LIKE\b`), typ: token.BINARYOP},
	{re: regexp.MustCompile(`(?i)^BETWEEN\b`), typ: token.COMPARISONOP},
	{re: regexp.MustCompile(`(?i)^AND\b`), typ: token.AND},
	{re: regexp.MustCompile(`(?i)^OR\b`), typ: token.OR},
	{re: regexp.MustCompile(`(?i)^NOT\b`), typ: token.NOT},
	{re: regexp.MustCompile(`(?i)^(?:TRUE|FALSE)\b`), typ: token.BOOLEAN},
	{re: regexp.MustCompile(`(?i)^(?:DATE|TIMESTAMP)\s*\(\s*'([^']*)'\s*\)`), typ: token.DATE},
	{re: regexp.MustCompile(`^'(?:[^']|'')*'`), typ: token.STRING},
	{re: regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?\b`), typ: token.NUMBER},
	{re: regexp.MustCompile(`^` + token.SymbolPattern), typ: token.SYMBOL},
}

var operatorNames = map[string]string{
	"=":       entity.OperatorEquals,
	"<>":      entity.OperatorNotEquals,
	"<":       entity.OperatorLess,
	">":       entity.OperatorGreater,
	"<=":      entity.OperatorLessEquals,
	">=":      entity.OperatorGreaterEquals,
	"LIKE":    entity.OperatorContains,
	"BETWEEN": entity.OperatorBetween,
}

// Tokenize converts a query text into tokens in source order.
// It fails on the first position where no token specification matches.
func Tokenize(input string) ([]token.Token, error) {
	// Offsets count from the first non-blank character.
	input = strings.TrimLeft(input, " \t\n\f\r")

	tokens := make([]token.Token, 0, len(input)/4)

	var last *token.Token
	pos, offset := 0, 0

	for pos < len(input) {
		tok, size, emit, err := next(input[pos:], offset, last)
		if err != nil {
			return nil, err
		}

		pos += size
		offset += utf8.RuneCountInString(input[pos-size : pos])

		if emit {
			tokens = append(tokens, tok)
			last = &tokens[len(tokens)-1]
		}
	}

	return tokens, nil
}

// next matches a single token at the start of rest. offset is the character offset of rest
// inside the whole input and last the previously emitted token, if any.
func next(rest string, offset int, last *token.Token) (token.Token, int, bool, error) {
	for _, m := range matchers {
		loc := m.re.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			continue
		}

		raw := rest[:loc[1]]
		if m.skip {
			return token.Token{}, len(raw), false, nil
		}

		tok := token.Token{
			Type:  m.typ,
			Raw:   raw,
			Start: offset,
			End:   offset + utf8.RuneCountInString(raw),
		}

		switch m.typ {
		case token.BINARYOP, token.COMPARISONOP:
			tok.Literal = strings.ToUpper(raw)
			tok.Operator = operatorNames[tok.Literal]
		case token.AND, token.OR, token.NOT:
			tok.Literal = strings.ToUpper(raw)
		case token.BOOLEAN:
			tok.Literal = strings.ToLower(raw)
		case token.DATE:
			tok.Literal = rest[loc[2]:loc[3]]
		case token.STRING:
			tok.Literal = unquote(raw, isLike(last))
		default:
			tok.Literal = raw
		}

		return tok, len(raw), true, nil
	}

	snippet := rest
	if i := strings.IndexFunc(rest, unicode.IsSpace); i > 0 {
		snippet = rest[:i]
	}

	return token.Token{}, 0, false, fault.Syntax(offset, "", snippet, "unexpected token %q at offset %d", snippet, offset)
}

func isLike(last *token.Token) bool {
	return last != nil && last.Type == token.BINARYOP && last.Literal == "LIKE"
}

// unquote strips the surrounding quotes and resolves '' escapes. LIKE patterns also lose
// their bounding % wildcards and their backslash escapes.
func unquote(raw string, like bool) string {
	s := strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	if like {
		s, _, _ = TrimWildcards(s)
		s = unescapeLike(s)
	}
	return s
}

// TrimWildcards removes a leading and a trailing % wildcard from a LIKE pattern and
// reports which were present. A trailing % preceded by an odd run of backslashes is
// escaped and stays.
func TrimWildcards(pattern string) (body string, prefix, suffix bool) {
	if strings.HasPrefix(pattern, "%") {
		pattern, prefix = pattern[1:], true
	}

	if strings.HasSuffix(pattern, "%") {
		backslashes := 0
		for i := len(pattern) - 2; i >= 0 && pattern[i] == '\\'; i-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			pattern, suffix = pattern[:len(pattern)-1], true
		}
	}

	return pattern, prefix, suffix
}

// unescapeLike resolves \\, \% and \_ in a LIKE pattern.
func unescapeLike(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(`\%_`, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
