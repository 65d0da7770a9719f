// Package querier ties the queryables catalog, the filter language and the saved filter
// store together.
package querier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
	"github.com/thisisjab/oafilter/querier/encoder"
	"github.com/thisisjab/oafilter/querier/parser"
	"github.com/thisisjab/oafilter/querier/token"
)

// Catalog provides the queryables of a collection.
type Catalog interface {
	Queryables(collection string) ([]entity.Queryable, bool)
}

// Store persists saved filters.
type Store interface {
	Save(ctx context.Context, f entity.SavedFilter) error
	Get(ctx context.Context, id uuid.UUID) (entity.SavedFilter, error)
	List(ctx context.Context, collection string, limit int) ([]entity.SavedFilter, error)
}

type Querier struct {
	catalog Catalog
	store   Store
	logger  *slog.Logger
}

// New creates a Querier. store may be nil, in which case saving and loading filters
// fails with a not found fault.
func New(catalog Catalog, store Store, logger *slog.Logger) *Querier {
	return &Querier{
		catalog: catalog,
		store:   store,
		logger:  logger,
	}
}

// Queryables returns the queryables of a collection.
func (q *Querier) Queryables(collection string) ([]entity.Queryable, error) {
	queryables, ok := q.catalog.Queryables(collection)
	if !ok {
		return nil, fault.New(fault.NotFoundCode, fmt.Sprintf("collection %q not found", collection))
	}
	return queryables, nil
}

// Parse turns a query text into filter groups using the queryables of collection.
func (q *Querier) Parse(collection, text string) ([]entity.FilterGroup, error) {
	queryables, err := q.Queryables(collection)
	if err != nil {
		return nil, err
	}

	return parser.Parse(text, queryables)
}

// ParseOrEmpty is like Parse but falls back to an empty filter set when the text cannot
// be parsed, so that a page with a broken filter in its address still loads.
func (q *Querier) ParseOrEmpty(collection, text string) []entity.FilterGroup {
	groups, err := q.Parse(collection, text)
	if err != nil {
		q.logger.Warn("cannot parse filter, using an empty filter.", "collection", collection, "error", err)
		return []entity.FilterGroup{}
	}
	return groups
}

// Serialize resolves the queryables of groups against collection, recomputes the
// expressions of groups in place and returns the query text.
func (q *Querier) Serialize(collection string, groups []entity.FilterGroup) (string, error) {
	if err := q.resolve(collection, groups); err != nil {
		return "", err
	}

	return encoder.Encode(groups), nil
}

// resolve replaces the queryable of every predicate with the catalog's definition, so the
// catalog decides the id and type that end up in the query text. Predicates without a
// queryable yet are left alone; unknown ids are a bad input fault listing each of them.
func (q *Querier) resolve(collection string, groups []entity.FilterGroup) error {
	queryables, err := q.Queryables(collection)
	if err != nil {
		return err
	}
	index := entity.QueryableIndex(queryables)

	fields := fault.FieldErrorsMetadata{}
	for i := range groups {
		for j := range groups[i].Predicates {
			p := &groups[i].Predicates[j]
			if p.Queryable.ID == "" {
				continue
			}

			field := fmt.Sprintf("groups[%d].oafFilters[%d].queryable", i, j)
			known, ok := index[p.Queryable.ID]
			switch {
			case !ok:
				fields[field] = []string{fmt.Sprintf("Queryable %q does not exist in collection %q.", p.Queryable.ID, collection)}
			case !token.IsSymbol(known.ID):
				fields[field] = []string{fmt.Sprintf("Queryable %q cannot be used in a filter.", known.ID)}
			default:
				p.Queryable = known
			}
		}
	}

	if len(fields) > 0 {
		return fault.New(fault.BadInputCode, "filter references queryables that cannot be used").WithMetadata(fields)
	}

	return nil
}

// Save resolves and serializes groups and stores the resulting query text.
func (q *Querier) Save(ctx context.Context, collection string, groups []entity.FilterGroup) (entity.SavedFilter, error) {
	if q.store == nil {
		return entity.SavedFilter{}, errNoStore()
	}

	if err := q.resolve(collection, groups); err != nil {
		return entity.SavedFilter{}, err
	}

	expression := encoder.Encode(groups)
	if expression == "" {
		return entity.SavedFilter{}, fault.New(fault.BadInputCode, "filter is empty")
	}

	f := entity.SavedFilter{
		ID:         uuid.New(),
		Collection: collection,
		Expression: expression,
		CreatedAt:  time.Now().UTC(),
	}

	if err := q.store.Save(ctx, f); err != nil {
		return entity.SavedFilter{}, fmt.Errorf("cannot save filter: %w", err)
	}

	q.logger.Debug("saved filter.", "id", f.ID, "collection", collection)

	return f, nil
}

// Load returns a saved filter along with its parsed groups. Groups are empty when the
// stored text no longer parses, for example after the queryables changed.
func (q *Querier) Load(ctx context.Context, id uuid.UUID) (entity.SavedFilter, []entity.FilterGroup, error) {
	if q.store == nil {
		return entity.SavedFilter{}, nil, errNoStore()
	}

	f, err := q.store.Get(ctx, id)
	if err != nil {
		return entity.SavedFilter{}, nil, err
	}

	return f, q.ParseOrEmpty(f.Collection, f.Expression), nil
}

// List returns the most recent saved filters of a collection.
func (q *Querier) List(ctx context.Context, collection string, limit int) ([]entity.SavedFilter, error) {
	if q.store == nil {
		return nil, errNoStore()
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	return q.store.List(ctx, collection, limit)
}

func errNoStore() error {
	return fault.New(fault.NotFoundCode, "saved filters are not enabled")
}
