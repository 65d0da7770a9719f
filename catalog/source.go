package catalog

import (
	"context"

	"github.com/thisisjab/oafilter/entity"
)

// Source is an interface that defines the contract for queryables document providers.
// Provide blocks until ctx is done and may send any number of documents meanwhile.
type Source interface {
	SourceName() string
	Provide(ctx context.Context, docs chan<- entity.Document) error
	ProcessorNames() []string
}
