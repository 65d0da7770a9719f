package parser

import (
	"strconv"
	"strings"

	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/querier/ast"
	"github.com/thisisjab/oafilter/querier/encoder"
	"github.com/thisisjab/oafilter/querier/token"
)

// Groups converts the root collection into filter groups. Every bracketed child of root
// becomes one group; expressions directly inside root share one implicit group. The
// expression of each group is recomputed before returning.
func Groups(root *ast.Collection, queryables map[string]entity.Queryable) []entity.FilterGroup {
	groups := []entity.FilterGroup{}
	implicit := -1

	for _, child := range root.Children {
		switch n := child.(type) {
		case *ast.Collection:
			g := entity.NewFilterGroup()
			for _, expr := range n.Expressions() {
				if p, ok := Predicate(expr, queryables); ok {
					g.Predicates = append(g.Predicates, p)
				}
			}
			groups = append(groups, g)

		case ast.Expression:
			if implicit < 0 {
				groups = append(groups, entity.NewFilterGroup())
				implicit = len(groups) - 1
			}
			expr := ast.NegatableExpression{Expression: n, Negated: root.Negated}
			if p, ok := Predicate(expr, queryables); ok {
				groups[implicit].Predicates = append(groups[implicit].Predicates, p)
			}
		}
	}

	for i := range groups {
		encoder.EncodeGroup(&groups[i])
	}

	return groups
}

// Predicate builds the predicate for one expression. It reports false when the symbol is
// not a known queryable or the operator cannot be resolved.
func Predicate(expr ast.NegatableExpression, queryables map[string]entity.Queryable) (entity.Predicate, bool) {
	q, ok := queryables[expr.Expression.SymbolName()]
	if !ok {
		return entity.Predicate{}, false
	}

	p := entity.NewPredicate(q)

	var name string
	switch e := expr.Expression.(type) {
	case *ast.BinaryExpression:
		name = e.OperatorName
		p.Value = literalValue(q.Type, e.Literal)
	case *ast.ComparisonExpression:
		name = e.OperatorName
		p.MinValue = literalValue(q.Type, e.Lower)
		p.MaxValue = literalValue(q.Type, e.Upper)
	default:
		return entity.Predicate{}, false
	}

	if expr.Negated {
		negated, ok := entity.NegateOperator(name)
		if !ok {
			return entity.Predicate{}, false
		}
		name = negated
	}

	op, ok := entity.LookupOperator(name)
	if !ok {
		return entity.Predicate{}, false
	}
	p.Operator = op

	return p, true
}

// literalValue types the literal according to the queryable: integers as int64 (float64
// when out of range), floats as float64, booleans as bool. Everything else stays a string.
func literalValue(t entity.ValueType, lit token.Token) any {
	switch {
	case lit.Type == token.NUMBER && t == entity.ValueTypeInteger:
		if n, err := strconv.ParseInt(lit.Literal, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(lit.Literal, 64); err == nil {
			return f
		}
	case lit.Type == token.NUMBER && t == entity.ValueTypeFloat:
		if f, err := strconv.ParseFloat(lit.Literal, 64); err == nil {
			return f
		}
	case lit.Type == token.BOOLEAN && t == entity.ValueTypeBoolean:
		return lit.Literal == "true"
	case t == entity.ValueTypeDateTime:
		return strings.TrimSuffix(lit.Literal, "Z")
	}

	return lit.Literal
}
