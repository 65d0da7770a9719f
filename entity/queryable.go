package entity

// ValueType is the data type of a queryable as announced by the backend.
type ValueType string

const (
	ValueTypeString   ValueType = "string"
	ValueTypeInteger  ValueType = "integer"
	ValueTypeFloat    ValueType = "float"
	ValueTypeBoolean  ValueType = "boolean"
	ValueTypeDate     ValueType = "date"
	ValueTypeDateTime ValueType = "date-time"
)

// ValueTypes lists every supported value type.
var ValueTypes = []ValueType{
	ValueTypeString,
	ValueTypeInteger,
	ValueTypeFloat,
	ValueTypeBoolean,
	ValueTypeDate,
	ValueTypeDateTime,
}

func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeString, ValueTypeInteger, ValueTypeFloat, ValueTypeBoolean, ValueTypeDate, ValueTypeDateTime:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether literals of this type are written unquoted as numbers.
func (t ValueType) IsNumeric() bool {
	return t == ValueTypeInteger || t == ValueTypeFloat
}

// IsTemporal reports whether literals of this type are wrapped in DATE or TIMESTAMP.
func (t ValueType) IsTemporal() bool {
	return t == ValueTypeDate || t == ValueTypeDateTime
}

// Queryable is a named, typed property of a feature collection that can be filtered on.
type Queryable struct {
	// ID is the property name used as symbol in the query text.
	ID string `json:"id" yaml:"id"`

	Type ValueType `json:"type" yaml:"type"`

	// Values optionally enumerates the values the property can take.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`

	// Finalized marks Values as a closed set.
	Finalized bool `json:"finalized" yaml:"finalized"`

	MinValue *float64 `json:"minValue,omitempty" yaml:"min_value,omitempty"`
	MaxValue *float64 `json:"maxValue,omitempty" yaml:"max_value,omitempty"`
}

// QueryableIndex returns queryables keyed by id. Later duplicates win.
func QueryableIndex(queryables []Queryable) map[string]Queryable {
	idx := make(map[string]Queryable, len(queryables))
	for _, q := range queryables {
		idx[q.ID] = q
	}
	return idx
}
