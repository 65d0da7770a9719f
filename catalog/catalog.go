package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/oafilter/entity"
)

type Config struct {
	Sources    map[string]Source
	Processors map[string]Processor

	// Decoder turns documents into queryables. Defaults to processor.DecodeDocument.
	Decoder Decoder

	DocumentsBufferSize   uint
	ProcessorWorkersCount uint
}

// Catalog keeps the queryables of every collection up to date with its sources.
type Catalog struct {
	cfg    Config
	logger *slog.Logger
	store  *store
}

func New(cfg Config, logger *slog.Logger) (*Catalog, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Catalog{
		cfg:    cfg,
		logger: logger,
		store:  newStore(),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no queryables sources are configured")
	}

	for name, src := range c.Sources {
		if src.SourceName() != name {
			return fmt.Errorf("source %q is registered as %q", src.SourceName(), name)
		}
		for _, pName := range src.ProcessorNames() {
			if _, ok := c.Processors[pName]; !ok {
				return fmt.Errorf("source %q uses undefined processor %q", name, pName)
			}
		}
	}

	if c.ProcessorWorkersCount == 0 {
		return errors.New("processor workers cannot be zero")
	}

	return nil
}

// Queryables returns a copy of the queryables of a collection.
func (c *Catalog) Queryables(collection string) ([]entity.Queryable, bool) {
	return c.store.get(collection)
}

// Collections returns the names of all known collections, sorted.
func (c *Catalog) Collections() []string {
	return c.store.names()
}

// Set replaces the queryables of a collection directly, bypassing sources and processors.
func (c *Catalog) Set(collection string, queryables []entity.Queryable) {
	c.store.set(collection, queryables, time.Now())
}

// Run starts all sources and keeps the catalog updated until ctx is done or every source
// has stopped.
func (c *Catalog) Run(ctx context.Context) error {
	// docs will contain all documents from all sources.
	docs := c.consumeDocuments(ctx)

	var wg sync.WaitGroup
	results := make(chan update, c.cfg.DocumentsBufferSize)

	pm := newProcessorManager(c.logger, c.cfg.Sources, c.cfg.Processors, c.cfg.Decoder, c.cfg.ProcessorWorkersCount)

	// Process manager handles fan-out pattern.
	wg.Go(func() { pm.run(ctx, docs, results) })

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case u, ok := <-results:
			if !ok {
				wg.Wait()
				return nil
			}

			if c.store.set(u.collection, u.queryables, u.receivedAt) {
				c.logger.Info("updated queryables.", "collection", u.collection, "count", len(u.queryables))
			} else {
				c.logger.Debug("discarded outdated queryables.", "collection", u.collection)
			}
		}
	}
}

func (c *Catalog) consumeDocuments(ctx context.Context) <-chan entity.Document {
	docs := make(chan entity.Document, c.cfg.DocumentsBufferSize)
	c.logger.Info("created incoming documents channel.", "size", c.cfg.DocumentsBufferSize)

	var sourceWg sync.WaitGroup

	// Spawn sources
	for n, s := range c.cfg.Sources {
		sourceWg.Add(1)
		go func(name string, src Source) {
			defer sourceWg.Done()
			err := src.Provide(ctx, docs)

			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("queryables source failed.", "name", name, "error", err)
			}
		}(n, s)
	}

	go func() {
		sourceWg.Wait()
		close(docs)
	}()

	return docs
}
