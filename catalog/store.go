package catalog

import (
	"slices"
	"sync"
	"time"

	"github.com/thisisjab/oafilter/entity"
)

type snapshot struct {
	queryables []entity.Queryable
	updatedAt  time.Time
}

// store holds the latest queryables of every collection.
// Readers always get a copy, so a snapshot is never modified after it was stored.
type store struct {
	mu          sync.RWMutex
	collections map[string]snapshot
}

func newStore() *store {
	return &store{collections: make(map[string]snapshot)}
}

// set replaces the queryables of collection unless the stored ones are more recent.
// Workers may finish documents out of order, so an older document must not win.
func (s *store) set(collection string, queryables []entity.Queryable, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.collections[collection]; ok && cur.updatedAt.After(at) {
		return false
	}

	s.collections[collection] = snapshot{queryables: slices.Clone(queryables), updatedAt: at}
	return true
}

func (s *store) get(collection string) ([]entity.Queryable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	return slices.Clone(cur.queryables), true
}

func (s *store) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]string, 0, len(s.collections))
	for name := range s.collections {
		res = append(res, name)
	}
	slices.Sort(res)
	return res
}
