// Package encoder turns filter groups into query text.
//
// Encoding never fails. A predicate that cannot be expressed (missing or non-symbol queryable
// id, unknown type or operator, value of the wrong kind, unset bounds) encodes to an empty fragment, and
// empty fragments are skipped when predicates and groups are joined. This lets a UI
// regenerate the query text on every keystroke while a filter is still being edited.
package encoder

import (
	"fmt"
	"strings"

	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/querier/token"
)

// likeOptions parameterizes the LIKE family of operators.
type likeOptions struct {
	negate  bool
	prefix  string
	postfix string
}

// EncodePredicate returns the text fragment for a single predicate, or "" when the
// predicate is incomplete or malformed.
func EncodePredicate(p entity.Predicate) string {
	q := p.Queryable
	if !token.IsSymbol(q.ID) || !q.Type.Valid() {
		return ""
	}

	switch p.Operator.Name {
	case entity.OperatorEquals:
		return encodeBinary(q, "=", p.Value)
	case entity.OperatorNotEquals:
		return encodeBinary(q, "<>", p.Value)

	case entity.OperatorContains:
		return encodeLike(q, p.Value, likeOptions{prefix: "%", postfix: "%"})
	case entity.OperatorNotContains:
		return encodeLike(q, p.Value, likeOptions{negate: true, prefix: "%", postfix: "%"})
	case entity.OperatorBeginsWith:
		return encodeLike(q, p.Value, likeOptions{postfix: "%"})
	case entity.OperatorNotBeginsWith:
		return encodeLike(q, p.Value, likeOptions{negate: true, postfix: "%"})
	case entity.OperatorEndsWith:
		return encodeLike(q, p.Value, likeOptions{prefix: "%"})
	case entity.OperatorNotEndsWith:
		return encodeLike(q, p.Value, likeOptions{negate: true, prefix: "%"})

	case entity.OperatorGreater:
		return encodeOrdered(q, ">", p.Value)
	case entity.OperatorGreaterEquals:
		return encodeOrdered(q, ">=", p.Value)
	case entity.OperatorLess:
		return encodeOrdered(q, "<", p.Value)
	case entity.OperatorLessEquals:
		return encodeOrdered(q, "<=", p.Value)

	case entity.OperatorBetween:
		return encodeBetween(q, p.MinValue, p.MaxValue, false)
	case entity.OperatorNotBetween:
		return encodeBetween(q, p.MinValue, p.MaxValue, true)

	default:
		return ""
	}
}

// EncodeGroup ANDs the non-empty predicate fragments of g and wraps the result in
// parentheses. The computed fragments are cached on the predicates and on g.
func EncodeGroup(g *entity.FilterGroup) string {
	var parts []string
	for i := range g.Predicates {
		expr := EncodePredicate(g.Predicates[i])
		g.Predicates[i].Expression = expr
		if expr != "" {
			parts = append(parts, expr)
		}
	}

	g.Expression = wrap(parts, "AND")
	return g.Expression
}

// JoinGroups ORs the precomputed, non-empty group expressions and wraps the result in
// parentheses. It returns "" when every group is empty.
func JoinGroups(groups []entity.FilterGroup) string {
	var parts []string
	for _, g := range groups {
		if g.Expression != "" {
			parts = append(parts, g.Expression)
		}
	}

	return wrap(parts, "OR")
}

// Encode recomputes the expression of every group in place and joins them.
func Encode(groups []entity.FilterGroup) string {
	for i := range groups {
		EncodeGroup(&groups[i])
	}
	return JoinGroups(groups)
}

func wrap(parts []string, connective string) string {
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, fmt.Sprintf(" %s ", connective)))
}

func encodeBinary(q entity.Queryable, op string, value any) string {
	lit := formatLiteral(q.Type, value)
	if lit == "" {
		return ""
	}
	return fmt.Sprintf("(%s %s %s)", q.ID, op, lit)
}

func encodeLike(q entity.Queryable, value any, opts likeOptions) string {
	pattern := opts.prefix + escapeLike(stringify(value)) + opts.postfix
	expr := fmt.Sprintf("(%s LIKE %s)", q.ID, quote(pattern))
	if opts.negate {
		return "NOT" + expr
	}
	return expr
}

// encodeOrdered writes an ordering comparison. The value must be numeric, whatever the
// queryable type, except on temporal queryables where it is written as a date literal.
func encodeOrdered(q entity.Queryable, op string, value any) string {
	var (
		lit string
		ok  bool
	)
	if q.Type.IsTemporal() {
		lit, ok = formatBound(q.Type, value)
	} else {
		lit, ok = formatNumber(value)
	}
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s %s %s)", q.ID, op, lit)
}

// encodeBetween writes both bounds when present and degrades to a one-sided comparison
// when only one of them is set.
func encodeBetween(q entity.Queryable, lower, upper any, negate bool) string {
	var parts []string
	if lit, ok := formatBound(q.Type, lower); ok {
		parts = append(parts, fmt.Sprintf("%s >= %s", q.ID, lit))
	}
	if lit, ok := formatBound(q.Type, upper); ok {
		parts = append(parts, fmt.Sprintf("%s <= %s", q.ID, lit))
	}

	expr := wrap(parts, "AND")
	if expr != "" && negate {
		return "NOT" + expr
	}
	return expr
}
