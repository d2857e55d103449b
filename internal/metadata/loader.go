package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

/*
 * File-based metadata loading.
 *
 * LoadFile reads a metadata document from disk, picking the parser by
 * extension. Watcher reloads the document whenever the file changes and
 * hands the result to a sink callback; a reload that fails to parse keeps
 * the previous document in effect and logs the failure.
 *
 * The watch is placed on the containing directory, not the file itself:
 * most editors and config-management tools replace files via rename, which
 * drops an inode-level watch.
 */

// LoadFile reads and parses a metadata document. Supported extensions:
// .json, .yaml, .yml.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported metadata file extension: %s (expected .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Watcher reloads a metadata file on change.
type Watcher struct {
	path    string
	logger  *slog.Logger
	onLoad  func(Document)
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. onLoad is invoked with each
// successfully parsed document, including once for the initial load.
func NewWatcher(path string, logger *slog.Logger, onLoad func(Document)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if onLoad == nil {
		return nil, fmt.Errorf("onLoad callback is required")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:    path,
		logger:  logger,
		onLoad:  onLoad,
		watcher: fw,
	}, nil
}

// Start performs the initial load and then blocks reloading on changes
// until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.reload(); err != nil {
		return fmt.Errorf("initial metadata load: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}
			if err := w.reload(); err != nil {
				// Previous document stays in effect.
				w.logger.Warn("metadata reload failed",
					slog.String("path", w.path),
					slog.String("error", err.Error()))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("metadata watcher error", slog.String("error", err.Error()))
		}
	}
}

// matches reports whether the event concerns the watched file with an
// operation that changes content.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// reload parses the file and pushes the document to the sink.
func (w *Watcher) reload() error {
	doc, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.logger.Info("metadata loaded",
		slog.String("path", w.path),
		slog.Int("entities", len(doc)))
	w.onLoad(doc)
	return nil
}
