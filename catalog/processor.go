package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/processor"
)

// Processor is an interface that defines the contract for queryables processors.
// Processors must not modify their input.
type Processor interface {
	Process(queryables []entity.Queryable) ([]entity.Queryable, error)
}

// Decoder turns a raw document into queryables.
type Decoder func(data []byte) ([]entity.Queryable, error)

// update is the result of processing one document.
type update struct {
	collection string
	queryables []entity.Queryable
	receivedAt time.Time
}

type processorManager struct {
	sources      map[string]Source
	processors   map[string]Processor
	decode       Decoder
	logger       *slog.Logger
	workersCount uint
	wg           sync.WaitGroup
}

func newProcessorManager(logger *slog.Logger, sources map[string]Source, processors map[string]Processor, decode Decoder, workersCount uint) *processorManager {
	if decode == nil {
		decode = processor.DecodeDocument
	}

	return &processorManager{
		sources:      sources,
		processors:   processors,
		decode:       decode,
		logger:       logger,
		workersCount: workersCount,
	}
}

func (pm *processorManager) run(ctx context.Context, docs <-chan entity.Document, results chan<- update) {
	spawnWorker := func(workerId uint) {
		for {
			select {
			case <-ctx.Done():
				return
			case doc, ok := <-docs:
				if !ok {
					// The jobs channel is closed and empty. No more work.
					return
				}

				queryables, ok := pm.processDocument(doc)
				if !ok {
					continue
				}

				pm.logger.Debug("processed queryables document", "worker_id", workerId, "source", doc.Source, "collection", doc.Collection, "count", len(queryables))

				select {
				case results <- update{collection: doc.Collection, queryables: queryables, receivedAt: doc.ReceivedAt}:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := range pm.workersCount {
		pm.wg.Go(func() {
			spawnWorker(i)
		})
	}

	pm.wg.Wait()
	close(results)
}

// processDocument decodes a document and runs the processors of its source in order.
// A document that cannot be decoded, or that a processor rejects, is dropped so the
// collection keeps its previous queryables.
func (pm *processorManager) processDocument(doc entity.Document) ([]entity.Queryable, bool) {
	src, ok := pm.sources[doc.Source]
	if !ok {
		pm.logger.Error("source not found", "source", doc.Source)
		return nil, false
	}

	queryables, err := pm.decode(doc.Data)
	if err != nil {
		pm.logger.Error("failed to decode queryables document", "source", doc.Source, "error", err)
		return nil, false
	}

	for _, pName := range src.ProcessorNames() {
		p := pm.processors[pName]
		if p == nil {
			pm.logger.Warn("processor not found", "processor", pName)
			continue
		}

		processed, err := p.Process(queryables)
		if err != nil {
			pm.logger.Error("failed to process queryables", "source", doc.Source, "processor", pName, "error", err)
			return nil, false
		}

		queryables = processed
	}

	return queryables, true
}
