// Package processor decodes queryables documents and post-processes the decoded queryables
// before they reach the catalog.
package processor

import "github.com/thisisjab/oafilter/entity"

// Func adapts a plain function to the processor contract of the catalog.
type Func func(queryables []entity.Queryable) ([]entity.Queryable, error)

func (f Func) Process(queryables []entity.Queryable) ([]entity.Queryable, error) {
	return f(queryables)
}
