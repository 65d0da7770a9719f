package encoder

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/thisisjab/oafilter/entity"
)

func predicate(id string, t entity.ValueType, op string) entity.Predicate {
	p := entity.NewPredicate(entity.Queryable{ID: id, Type: t})
	p.Operator = entity.MustOperator(op)
	return p
}

func withValue(p entity.Predicate, v any) entity.Predicate {
	p.Value = v
	return p
}

func withRange(p entity.Predicate, lower, upper any) entity.Predicate {
	p.MinValue = lower
	p.MaxValue = upper
	return p
}

func TestEncodePredicate(t *testing.T) {
	tests := []struct {
		predicate entity.Predicate
		expected  string
	}{
		// string
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorEquals), nil), "(foo = '')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorEquals), "bar"), "(foo = 'bar')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorNotEquals), "it's"), "(foo <> 'it''s')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorEquals), 12), "(foo = '12')"},

		// like family
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorContains), "bar"), "(foo LIKE '%bar%')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorNotContains), "bar"), "NOT(foo LIKE '%bar%')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorBeginsWith), "bar"), "(foo LIKE 'bar%')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorNotBeginsWith), "bar"), "NOT(foo LIKE 'bar%')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorEndsWith), "bar"), "(foo LIKE '%bar')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorNotEndsWith), "bar"), "NOT(foo LIKE '%bar')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorContains), nil), "(foo LIKE '%%')"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorContains), "50%_off"), `(foo LIKE '%50\%\_off%')`},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorBeginsWith), `a\b`), `(foo LIKE 'a\\b%')`},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorNotEndsWith), "it's"), "NOT(foo LIKE '%it''s')"},

		// numbers
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorEquals), 42), "(foo = 42)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorEquals), float64(42)), "(foo = 42)"},
		{withValue(predicate("foo", entity.ValueTypeFloat, entity.OperatorEquals), -1.25), "(foo = -1.25)"},
		{withValue(predicate("foo", entity.ValueTypeFloat, entity.OperatorEquals), "3.5"), "(foo = 3.5)"},
		{withValue(predicate("foo", entity.ValueTypeFloat, entity.OperatorEquals), json.Number("1e3")), "(foo = 1000)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorEquals), nil), ""},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorEquals), "abc"), ""},
		{withValue(predicate("foo", entity.ValueTypeFloat, entity.OperatorEquals), math.NaN()), ""},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorGreater), 5), "(foo > 5)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorGreaterEquals), 5), "(foo >= 5)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorLess), 5), "(foo < 5)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorLessEquals), 5), "(foo <= 5)"},
		{withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorGreater), "five"), ""},

		// ordering needs a numeric value, or a date on temporal queryables
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorGreater), 5), "(foo > 5)"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorLessEquals), "7"), "(foo <= 7)"},
		{withValue(predicate("foo", entity.ValueTypeString, entity.OperatorGreater), "abc"), ""},
		{withValue(predicate("foo", entity.ValueTypeDate, entity.OperatorGreater), "2025-08-12"), "(foo > DATE('2025-08-12'))"},
		{withValue(predicate("foo", entity.ValueTypeDate, entity.OperatorGreaterEquals), nil), ""},

		// booleans
		{withValue(predicate("foo", entity.ValueTypeBoolean, entity.OperatorEquals), true), "(foo = true)"},
		{withValue(predicate("foo", entity.ValueTypeBoolean, entity.OperatorEquals), "true"), "(foo = true)"},
		{withValue(predicate("foo", entity.ValueTypeBoolean, entity.OperatorEquals), "yes"), "(foo = false)"},
		{withValue(predicate("foo", entity.ValueTypeBoolean, entity.OperatorEquals), nil), "(foo = false)"},
		{withValue(predicate("foo", entity.ValueTypeBoolean, entity.OperatorGreater), true), ""},

		// temporal
		{withValue(predicate("foo", entity.ValueTypeDate, entity.OperatorEquals), "2025-08-12"), "(foo = DATE('2025-08-12'))"},
		{withValue(predicate("foo", entity.ValueTypeDate, entity.OperatorEquals), nil), ""},
		{withValue(predicate("foo", entity.ValueTypeDate, entity.OperatorEquals), ""), ""},
		{withValue(predicate("foo", entity.ValueTypeDateTime, entity.OperatorLess), "2025-08-12T10:00:00"), "(foo < TIMESTAMP('2025-08-12T10:00:00Z'))"},

		// between
		{withRange(predicate("foo", entity.ValueTypeInteger, entity.OperatorBetween), 2, 8), "(foo >= 2 AND foo <= 8)"},
		{withRange(predicate("foo", entity.ValueTypeInteger, entity.OperatorNotBetween), 2, 8), "NOT(foo >= 2 AND foo <= 8)"},
		{withRange(predicate("foo", entity.ValueTypeFloat, entity.OperatorBetween), 2, nil), "(foo >= 2)"},
		{withRange(predicate("foo", entity.ValueTypeFloat, entity.OperatorBetween), nil, 0.5), "(foo <= 0.5)"},
		{withRange(predicate("foo", entity.ValueTypeFloat, entity.OperatorBetween), nil, nil), ""},
		{withRange(predicate("foo", entity.ValueTypeFloat, entity.OperatorNotBetween), "", "x"), ""},
		{withRange(predicate("foo", entity.ValueTypeDate, entity.OperatorBetween), "2025-01-01", "2025-12-31"), "(foo >= DATE('2025-01-01') AND foo <= DATE('2025-12-31'))"},
		{withRange(predicate("foo", entity.ValueTypeString, entity.OperatorBetween), "a", "b"), ""},

		// malformed
		{withValue(predicate("", entity.ValueTypeString, entity.OperatorEquals), "x"), ""},
		{withValue(predicate("x) OR (y", entity.ValueTypeString, entity.OperatorEquals), "a"), ""},
		{withValue(predicate("x", entity.ValueTypeString, entity.OperatorEquals), "a"), ""},
		{withValue(predicate("and", entity.ValueTypeString, entity.OperatorEquals), "a"), ""},
		{withValue(predicate("Between", entity.ValueTypeInteger, entity.OperatorEquals), 1), ""},
		{withValue(predicate("foo", entity.ValueType("geometry"), entity.OperatorEquals), "x"), ""},
		{entity.Predicate{Queryable: entity.Queryable{ID: "foo", Type: entity.ValueTypeString}, Operator: entity.Operator{Name: "near"}, Value: "x"}, ""},
	}

	for i, tt := range tests {
		actual := EncodePredicate(tt.predicate)
		if actual != tt.expected {
			t.Fatalf("#%d - expected `%s`, got `%s`", i, tt.expected, actual)
		}
	}
}

func TestEncodeGroup(t *testing.T) {
	g := entity.NewFilterGroup(
		withValue(predicate("foo", entity.ValueTypeString, entity.OperatorEquals), "a"),
		withValue(predicate("bar", entity.ValueTypeInteger, entity.OperatorGreater), "not a number"),
		withRange(predicate("baz", entity.ValueTypeInteger, entity.OperatorBetween), 1, 2),
	)

	expected := "((foo = 'a') AND (baz >= 1 AND baz <= 2))"
	if actual := EncodeGroup(&g); actual != expected {
		t.Fatalf("expected `%s`, got `%s`", expected, actual)
	}

	if g.Expression != expected {
		t.Fatalf("expected group expression to be cached, got `%s`", g.Expression)
	}

	cached := []string{"(foo = 'a')", "", "(baz >= 1 AND baz <= 2)"}
	for i, p := range g.Predicates {
		if p.Expression != cached[i] {
			t.Fatalf("#%d - expected cached `%s`, got `%s`", i, cached[i], p.Expression)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	empty := entity.NewFilterGroup(
		withValue(predicate("foo", entity.ValueTypeInteger, entity.OperatorEquals), nil),
		withValue(predicate("", entity.ValueTypeString, entity.OperatorEquals), "x"),
	)
	if actual := EncodeGroup(&empty); actual != "" {
		t.Fatalf("expected empty group expression, got `%s`", actual)
	}

	if actual := Encode([]entity.FilterGroup{empty, entity.NewFilterGroup()}); actual != "" {
		t.Fatalf("expected empty query, got `%s`", actual)
	}

	if actual := Encode(nil); actual != "" {
		t.Fatalf("expected empty query for nil groups, got `%s`", actual)
	}
}

func TestEncode(t *testing.T) {
	groups := []entity.FilterGroup{
		entity.NewFilterGroup(
			withValue(predicate("foo", entity.ValueTypeString, entity.OperatorContains), "x"),
			withValue(predicate("bar", entity.ValueTypeBoolean, entity.OperatorEquals), true),
		),
		entity.NewFilterGroup(),
		entity.NewFilterGroup(
			withValue(predicate("baz", entity.ValueTypeFloat, entity.OperatorLess), 2.5),
		),
	}

	expected := "(((foo LIKE '%x%') AND (bar = true)) OR ((baz < 2.5)))"
	if actual := Encode(groups); actual != expected {
		t.Fatalf("expected `%s`, got `%s`", expected, actual)
	}
}

func TestJoinGroupsUsesCachedExpressions(t *testing.T) {
	groups := []entity.FilterGroup{
		{Expression: "((a_ = 1))"},
		{Expression: ""},
		{Expression: "((b_ = 2))"},
	}

	expected := "(((a_ = 1)) OR ((b_ = 2)))"
	if actual := JoinGroups(groups); actual != expected {
		t.Fatalf("expected `%s`, got `%s`", expected, actual)
	}
}
