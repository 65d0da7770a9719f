package parser

import (
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
	"github.com/thisisjab/oafilter/querier/ast"
	"github.com/thisisjab/oafilter/querier/lexer"
	"github.com/thisisjab/oafilter/querier/token"
)

// foldedBetween is the only operator pair that folds two comparisons on the same symbol
// into one range expression.
const foldedBetween = ">=<="

// Parser is a recursive descent parser over an immutable token slice.
// A Parser is single use; create one per query text.
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse reads a query text and returns the filter groups it describes.
// Expressions on symbols that are not among queryables are dropped silently.
// Any lexing or structural error fails the whole parse.
func Parse(text string, queryables []entity.Queryable) ([]entity.FilterGroup, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}

	root, err := New(tokens).ParseQuery()
	if err != nil {
		return nil, err
	}

	return Groups(root, entity.QueryableIndex(queryables)), nil
}

// ParseQuery returns the collection of the outermost brackets. Its children are the
// OR-ed filter groups.
func (p *Parser) ParseQuery() (*ast.Collection, error) {
	if err := validateBrackets(p.tokens); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	root, err := p.parseCollection()
	if err != nil {
		return nil, err
	}

	if !p.done() {
		tok := p.cur()
		return nil, fault.Syntax(tok.Start, "end of input", tok.Type.String(),
			"unexpected %s %q at offset %d after the closing bracket", tok.Type, tok.Raw, tok.Start)
	}

	return root, nil
}

// validateBrackets checks the anchor brackets and the bracket balance before parsing.
func validateBrackets(tokens []token.Token) error {
	if len(tokens) == 0 {
		return fault.Syntax(0, token.LPAREN.String(), "end of input", "query must start with an opening bracket")
	}

	first, last := tokens[0], tokens[len(tokens)-1]
	if first.Type != token.LPAREN {
		return fault.Syntax(first.Start, token.LPAREN.String(), first.Type.String(),
			"query must start with an opening bracket, found %s %q", first.Type, first.Raw)
	}
	if last.Type != token.RPAREN {
		return fault.Syntax(last.Start, token.RPAREN.String(), last.Type.String(),
			"query must end with a closing bracket, found %s %q", last.Type, last.Raw)
	}

	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}

		if depth < 0 {
			return fault.Syntax(tok.Start, "", tok.Type.String(), "unexpected closing bracket at offset %d", tok.Start)
		}
	}

	if depth != 0 {
		return fault.Syntax(last.End, token.RPAREN.String(), "end of input", "missing %d closing bracket(s)", depth)
	}

	return nil
}

// parseCollection parses up to and including the closing bracket matching an opening
// bracket that was already consumed.
func (p *Parser) parseCollection() (*ast.Collection, error) {
	c := &ast.Collection{}

	for !p.done() {
		tok := p.cur()

		switch tok.Type {
		case token.LPAREN:
			p.advance()
			child, err := p.parseCollection()
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, child)

		case token.RPAREN:
			p.advance()
			return c, nil

		case token.AND, token.OR:
			// Grouping alone encodes the structure.
			p.advance()

		case token.NOT:
			p.advance()
			if _, err := p.expect(token.LPAREN); err != nil {
				return nil, err
			}
			child, err := p.parseCollection()
			if err != nil {
				return nil, err
			}
			if !singleExpression(child) {
				return nil, fault.Syntax(tok.Start, "single expression", "conjunction",
					"NOT over a conjunction is not supported at offset %d", tok.Start)
			}
			child.Negated = true
			c.Children = append(c.Children, child)

		case token.SYMBOL:
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, expr)

		default:
			return nil, p.unexpected(tok, token.SYMBOL.String())
		}
	}

	return nil, p.endOfInput(token.RPAREN.String())
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	next, ok := p.peek(1)
	if !ok {
		return nil, p.endOfInput(token.BINARYOP.String())
	}

	switch next.Type {
	case token.BINARYOP:
		return p.parseBinaryExpression()
	case token.COMPARISONOP:
		return p.parseComparisonExpression()
	default:
		return nil, p.unexpected(next, token.BINARYOP.String())
	}
}

// parseBinaryExpression parses `symbol op literal`, folding a directly following
// `AND symbol op literal` on the same symbol into a range when the operators are >= and <=.
func (p *Parser) parseBinaryExpression() (ast.Expression, error) {
	symbol, err := p.expect(token.SYMBOL)
	if err != nil {
		return nil, err
	}

	op, err := p.expect(token.BINARYOP)
	if err != nil {
		return nil, err
	}

	lit, err := p.expectLiteral()
	if err != nil {
		return nil, err
	}

	if !p.foldFollows(symbol) {
		name := op.Operator
		if op.Literal == "LIKE" {
			name = likeOperator(lit)
		}

		return &ast.BinaryExpression{
			Symbol:       symbol,
			Operator:     op,
			Literal:      lit,
			OperatorName: name,
		}, nil
	}

	p.advance() // AND
	p.advance() // symbol

	op2, err := p.expect(token.BINARYOP)
	if err != nil {
		return nil, err
	}

	upper, err := p.expectLiteral()
	if err != nil {
		return nil, err
	}

	if op.Literal+op2.Literal != foldedBetween {
		return nil, fault.Syntax(op2.Start, ">= ... <=", op.Literal+" ... "+op2.Literal,
			"unsupported operator pair %s and %s on %s at offset %d", op.Literal, op2.Literal, symbol.Literal, op2.Start)
	}

	return &ast.ComparisonExpression{
		Symbol: symbol,
		Operator: token.Token{
			Type:     token.COMPARISONOP,
			Literal:  "BETWEEN",
			Start:    op.Start,
			End:      op2.End,
			Operator: entity.OperatorBetween,
		},
		Lower:        lit,
		Upper:        upper,
		OperatorName: entity.OperatorBetween,
		Folded:       true,
	}, nil
}

// parseComparisonExpression parses `symbol BETWEEN literal AND literal`.
func (p *Parser) parseComparisonExpression() (ast.Expression, error) {
	symbol, err := p.expect(token.SYMBOL)
	if err != nil {
		return nil, err
	}

	op, err := p.expect(token.COMPARISONOP)
	if err != nil {
		return nil, err
	}

	lower, err := p.expectLiteral()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.AND); err != nil {
		return nil, err
	}

	upper, err := p.expectLiteral()
	if err != nil {
		return nil, err
	}

	return &ast.ComparisonExpression{
		Symbol:       symbol,
		Operator:     op,
		Lower:        lower,
		Upper:        upper,
		OperatorName: op.Operator,
	}, nil
}

// singleExpression reports whether c holds exactly one expression, possibly inside
// further single-child brackets. NOT never distributes over AND.
func singleExpression(c *ast.Collection) bool {
	if len(c.Children) != 1 {
		return false
	}

	switch n := c.Children[0].(type) {
	case *ast.Collection:
		return singleExpression(n)
	case ast.Expression:
		return true
	default:
		return false
	}
}

// foldFollows reports whether the next tokens are `AND <symbol> <binary operator>`.
func (p *Parser) foldFollows(symbol token.Token) bool {
	and, ok1 := p.peek(0)
	sym, ok2 := p.peek(1)
	op, ok3 := p.peek(2)
	if !ok1 || !ok2 || !ok3 {
		return false
	}

	return and.Type == token.AND &&
		sym.Type == token.SYMBOL && sym.Literal == symbol.Literal &&
		op.Type == token.BINARYOP
}

// likeOperator derives the operator of a LIKE expression from the wildcards bounding the
// raw pattern.
func likeOperator(lit token.Token) string {
	if lit.Type != token.STRING || len(lit.Raw) < 2 {
		return entity.OperatorContains
	}

	_, prefix, suffix := lexer.TrimWildcards(lit.Raw[1 : len(lit.Raw)-1])

	switch {
	case prefix && suffix:
		return entity.OperatorContains
	case prefix:
		return entity.OperatorEndsWith
	case suffix:
		return entity.OperatorBeginsWith
	default:
		return entity.OperatorEquals
	}
}

func (p *Parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) (token.Token, bool) {
	if p.pos+n >= len(p.tokens) {
		return token.Token{}, false
	}
	return p.tokens[p.pos+n], true
}

func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) expect(typ token.TokenType) (token.Token, error) {
	if p.done() {
		return token.Token{}, p.endOfInput(typ.String())
	}

	tok := p.cur()
	if tok.Type != typ {
		return token.Token{}, p.unexpected(tok, typ.String())
	}

	p.advance()
	return tok, nil
}

func (p *Parser) expectLiteral() (token.Token, error) {
	if p.done() {
		return token.Token{}, p.endOfInput("Literal")
	}

	tok := p.cur()
	if !tok.Type.IsLiteral() {
		return token.Token{}, p.unexpected(tok, "Literal")
	}

	p.advance()
	return tok, nil
}

func (p *Parser) unexpected(tok token.Token, expected string) error {
	return fault.Syntax(tok.Start, expected, tok.Type.String(),
		"expected %s but found %s %q at offset %d", expected, tok.Type, tok.Raw, tok.Start)
}

func (p *Parser) endOfInput(expected string) error {
	offset := 0
	if n := len(p.tokens); n > 0 {
		offset = p.tokens[n-1].End
	}
	return fault.Syntax(offset, expected, "end of input", "expected %s but reached the end of input", expected)
}
