package processor

import (
	"slices"

	"github.com/thisisjab/oafilter/entity"
)

// valueType maps a JSON Schema type and format to a queryable value type.
func valueType(schemaType, format string) (entity.ValueType, bool) {
	switch schemaType {
	case "string":
		switch format {
		case "date":
			return entity.ValueTypeDate, true
		case "date-time":
			return entity.ValueTypeDateTime, true
		default:
			return entity.ValueTypeString, true
		}
	case "integer":
		return entity.ValueTypeInteger, true
	case "number":
		return entity.ValueTypeFloat, true
	case "boolean":
		return entity.ValueTypeBoolean, true
	default:
		return "", false
	}
}

// cloneQueryables copies queryables deep enough that processors never share slices or
// bounds with their input.
func cloneQueryables(queryables []entity.Queryable) []entity.Queryable {
	res := make([]entity.Queryable, len(queryables))
	for i, q := range queryables {
		q.Values = slices.Clone(q.Values)
		if q.MinValue != nil {
			v := *q.MinValue
			q.MinValue = &v
		}
		if q.MaxValue != nil {
			v := *q.MaxValue
			q.MaxValue = &v
		}
		res[i] = q
	}
	return res
}
