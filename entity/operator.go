package entity

import (
	"encoding/json"
	"fmt"
	"slices"
)

type OperatorType string

const (
	// OperatorTypeBinary compares a queryable against a single literal.
	OperatorTypeBinary OperatorType = "binary"
	// OperatorTypeComparison compares a queryable against a lower and an upper bound.
	OperatorTypeComparison OperatorType = "comparison"
)

const (
	OperatorEquals        = "equals"
	OperatorNotEquals     = "not_equals"
	OperatorContains      = "contains"
	OperatorNotContains   = "not_contains"
	OperatorBeginsWith    = "begins_with"
	OperatorNotBeginsWith = "not_begins_with"
	OperatorEndsWith      = "ends_with"
	OperatorNotEndsWith   = "not_ends_with"
	OperatorGreater       = "greater"
	OperatorGreaterEquals = "greater_equals"
	OperatorLess          = "less"
	OperatorLessEquals    = "less_equals"
	OperatorBetween       = "between"
	OperatorNotBetween    = "not_between"
)

// Operator describes one entry of the operator registry.
type Operator struct {
	Name           string       `json:"name"`
	TranslationKey string       `json:"translationKey"`
	Type           OperatorType `json:"operatorType"`

	// TypeConstraints limits the value types the operator applies to.
	// An empty list means the operator applies to every type.
	TypeConstraints []ValueType `json:"typeConstraints,omitempty"`

	// AllowPattern reports whether the value input may be validated against a pattern.
	AllowPattern bool `json:"allowPattern"`
}

var (
	orderable = []ValueType{ValueTypeInteger, ValueTypeFloat, ValueTypeDate, ValueTypeDateTime}
	textual   = []ValueType{ValueTypeString}
)

// operatorList is the registry in display order. It is never mutated.
var operatorList = []Operator{
	{Name: OperatorEquals, TranslationKey: "filter_operator_equals", Type: OperatorTypeBinary, AllowPattern: true},
	{Name: OperatorNotEquals, TranslationKey: "filter_operator_not_equals", Type: OperatorTypeBinary, AllowPattern: true},
	{Name: OperatorContains, TranslationKey: "filter_operator_contains", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorNotContains, TranslationKey: "filter_operator_not_contains", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorBeginsWith, TranslationKey: "filter_operator_begins_with", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorNotBeginsWith, TranslationKey: "filter_operator_not_begins_with", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorEndsWith, TranslationKey: "filter_operator_ends_with", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorNotEndsWith, TranslationKey: "filter_operator_not_ends_with", Type: OperatorTypeBinary, TypeConstraints: textual},
	{Name: OperatorGreater, TranslationKey: "filter_operator_greater", Type: OperatorTypeBinary, TypeConstraints: orderable},
	{Name: OperatorGreaterEquals, TranslationKey: "filter_operator_greater_equals", Type: OperatorTypeBinary, TypeConstraints: orderable},
	{Name: OperatorLess, TranslationKey: "filter_operator_less", Type: OperatorTypeBinary, TypeConstraints: orderable},
	{Name: OperatorLessEquals, TranslationKey: "filter_operator_less_equals", Type: OperatorTypeBinary, TypeConstraints: orderable},
	{Name: OperatorBetween, TranslationKey: "filter_operator_between", Type: OperatorTypeComparison, TypeConstraints: orderable},
	{Name: OperatorNotBetween, TranslationKey: "filter_operator_not_between", Type: OperatorTypeComparison, TypeConstraints: orderable},
}

var operators = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorList))
	for _, op := range operatorList {
		m[op.Name] = op
	}
	return m
}()

var negations = map[string]string{
	OperatorEquals:        OperatorNotEquals,
	OperatorNotEquals:     OperatorEquals,
	OperatorContains:      OperatorNotContains,
	OperatorNotContains:   OperatorContains,
	OperatorBeginsWith:    OperatorNotBeginsWith,
	OperatorNotBeginsWith: OperatorBeginsWith,
	OperatorEndsWith:      OperatorNotEndsWith,
	OperatorNotEndsWith:   OperatorEndsWith,
	OperatorGreater:       OperatorLessEquals,
	OperatorLessEquals:    OperatorGreater,
	OperatorLess:          OperatorGreaterEquals,
	OperatorGreaterEquals: OperatorLess,
	OperatorBetween:       OperatorNotBetween,
	OperatorNotBetween:    OperatorBetween,
}

// Operators returns the registry in display order.
func Operators() []Operator {
	return slices.Clone(operatorList)
}

// LookupOperator finds an operator definition by name.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operators[name]
	return op, ok
}

// MustOperator is like LookupOperator but panics on unknown names.
// It is meant for names that are compile time constants.
func MustOperator(name string) Operator {
	op, ok := operators[name]
	if !ok {
		panic(fmt.Sprintf("unknown operator %q", name))
	}
	return op
}

// OperatorsFor returns the operators applicable to a value type, in display order.
func OperatorsFor(t ValueType) []Operator {
	var res []Operator
	for _, op := range operatorList {
		if op.Accepts(t) {
			res = append(res, op)
		}
	}
	return res
}

// NegateOperator returns the name of the logical complement of an operator.
func NegateOperator(name string) (string, bool) {
	n, ok := negations[name]
	return n, ok
}

// Accepts reports whether the operator applies to the value type.
func (o Operator) Accepts(t ValueType) bool {
	if len(o.TypeConstraints) == 0 {
		return t.Valid()
	}
	return slices.Contains(o.TypeConstraints, t)
}

// UnmarshalJSON accepts either an operator name or an operator object and resolves it
// against the registry. Unknown names keep only the name so that encoding drops them.
func (o *Operator) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("operator must be a name or an object: %w", err)
		}
		name = obj.Name
	}

	if op, ok := operators[name]; ok {
		*o = op
		return nil
	}

	*o = Operator{Name: name}
	return nil
}
