package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thisisjab/oafilter/entity"
)

// FileSource reads a queryables document from disk and reads it again every time the file
// is written or replaced.
type FileSource struct {
	sourceName     string
	collection     string
	filePath       string
	processorNames []string
	logger         *slog.Logger
}

// NewFileSource creates a new FileSource instance.
func NewFileSource(logger *slog.Logger, sourceName, collection, filePath string, processorNames []string) *FileSource {
	return &FileSource{
		logger:         logger,
		sourceName:     sourceName,
		collection:     collection,
		filePath:       filePath,
		processorNames: processorNames,
	}
}

func (f *FileSource) SourceName() string {
	return f.sourceName
}

func (f *FileSource) ProcessorNames() []string {
	return f.processorNames
}

func (f *FileSource) Provide(ctx context.Context, docs chan<- entity.Document) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often save by writing a new file and renaming it over the old one, which
	// drops a watch on the file itself. Watching the directory survives that.
	if err := watcher.Add(filepath.Dir(f.filePath)); err != nil {
		return fmt.Errorf("cannot add directory to watcher: %w", err)
	}

	if err := f.send(ctx, docs); err != nil {
		return err
	}

	target := filepath.Clean(f.filePath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				f.logger.Debug("received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			if err := f.send(ctx, docs); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// A half written file is read again on the next write event.
				f.logger.Warn("cannot read queryables document.", "path", f.filePath, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (f *FileSource) send(ctx context.Context, docs chan<- entity.Document) error {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}

	doc := entity.Document{
		Source:     f.sourceName,
		Collection: f.collection,
		Data:       data,
		ReceivedAt: time.Now(),
	}

	select {
	case docs <- doc:
		f.logger.Debug("read queryables document.", "path", f.filePath, "bytes", len(data))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
