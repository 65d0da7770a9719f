package ast

import "github.com/thisisjab/oafilter/querier/token"

// Node is the interface that all nodes in the parse tree must implement.
// It uses a private marker method so only types defined in this package can be nodes.
type Node interface {
	node()
}

// Collection is the content of one pair of brackets.
// Connectives between children are not kept: a collection directly inside the root is one
// filter group, and everything nested deeper is AND-ed into that group.
type Collection struct {
	Children []Node

	// Negated is set when the brackets were preceded by NOT.
	Negated bool
}

func (*Collection) node() {}

// Expressions returns every expression inside the collection, depth first, with the
// negation of enclosing collections applied.
func (c *Collection) Expressions() []NegatableExpression {
	var res []NegatableExpression
	c.collect(c.Negated, &res)
	return res
}

func (c *Collection) collect(negated bool, res *[]NegatableExpression) {
	for _, child := range c.Children {
		switch n := child.(type) {
		case *Collection:
			n.collect(negated != n.Negated, res)
		case Expression:
			*res = append(*res, NegatableExpression{Expression: n, Negated: negated})
		}
	}
}

// Expression is a leaf comparison of a symbol against one or two literals.
type Expression interface {
	Node
	expression()

	// SymbolName returns the queryable id the expression compares against.
	SymbolName() string
}

// NegatableExpression pairs an expression with the negation applying to it.
type NegatableExpression struct {
	Expression Expression
	Negated    bool
}

// BinaryExpression is `<symbol> <operator> <literal>`.
type BinaryExpression struct {
	Symbol   token.Token
	Operator token.Token
	Literal  token.Token

	// OperatorName is the registry operator the expression resolves to.
	OperatorName string
}

func (*BinaryExpression) node()       {}
func (*BinaryExpression) expression() {}

func (e *BinaryExpression) SymbolName() string { return e.Symbol.Literal }

// ComparisonExpression is `<symbol> BETWEEN <lower> AND <upper>`, or the folded form
// `<symbol> >= <lower> AND <symbol> <= <upper>`.
type ComparisonExpression struct {
	Symbol   token.Token
	Operator token.Token
	Lower    token.Token
	Upper    token.Token

	OperatorName string

	// Folded is set when the expression was built from two chained binary comparisons.
	Folded bool
}

func (*ComparisonExpression) node()       {}
func (*ComparisonExpression) expression() {}

func (e *ComparisonExpression) SymbolName() string { return e.Symbol.Literal }
