package entity

import (
	"time"

	"github.com/google/uuid"
)

// Predicate is one leaf condition of a filter: queryable, operator and value(s).
type Predicate struct {
	Queryable Queryable `json:"queryable"`
	Operator  Operator  `json:"operator"`

	// Value is used by binary operators.
	Value any `json:"value"`

	// MinValue and MaxValue are used by comparison operators.
	MinValue any `json:"minValue"`
	MaxValue any `json:"maxValue"`

	// Expression caches the last text fragment computed for this predicate.
	Expression string `json:"expression"`
}

// FilterGroup is a conjunction of predicates. Groups are disjoined to form a query.
type FilterGroup struct {
	ID         string      `json:"id"`
	Predicates []Predicate `json:"oafFilters"`

	// Expression caches the last text computed for the whole group.
	Expression string `json:"expression"`
}

// NewPredicate returns a predicate on queryable with the default operator and no value.
func NewPredicate(queryable Queryable) Predicate {
	return Predicate{
		Queryable: queryable,
		Operator:  MustOperator(OperatorEquals),
	}
}

// NewFilterGroup returns a group with a fresh random id.
func NewFilterGroup(predicates ...Predicate) FilterGroup {
	if predicates == nil {
		predicates = []Predicate{}
	}
	return FilterGroup{
		ID:         uuid.NewString(),
		Predicates: predicates,
	}
}

// SavedFilter is a query text stored for later redisplay or sharing.
type SavedFilter struct {
	ID         uuid.UUID `json:"id"`
	Collection string    `json:"collection"`
	Expression string    `json:"expression"`
	CreatedAt  time.Time `json:"createdAt"`
}
