package source

import (
	"context"
	"time"

	"github.com/thisisjab/oafilter/entity"
)

// StaticSource provides one fixed document and then waits until the context is done.
// It is used for queryables embedded in the configuration file.
type StaticSource struct {
	sourceName     string
	collection     string
	data           []byte
	processorNames []string
}

func NewStaticSource(sourceName, collection string, data []byte, processorNames []string) *StaticSource {
	return &StaticSource{
		sourceName:     sourceName,
		collection:     collection,
		data:           data,
		processorNames: processorNames,
	}
}

func (s *StaticSource) SourceName() string {
	return s.sourceName
}

func (s *StaticSource) ProcessorNames() []string {
	return s.processorNames
}

func (s *StaticSource) Provide(ctx context.Context, docs chan<- entity.Document) error {
	doc := entity.Document{
		Source:     s.sourceName,
		Collection: s.collection,
		Data:       s.data,
		ReceivedAt: time.Now(),
	}

	select {
	case docs <- doc:
	case <-ctx.Done():
		return ctx.Err()
	}

	<-ctx.Done()
	return ctx.Err()
}
