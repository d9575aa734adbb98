package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for a file to stop changing
// before extracting it.
const defaultDebounce = 500 * time.Millisecond

// defaultInclude matches the formats the default registry extracts.
var defaultInclude = []string{"**/*.txt", "**/*.md", "**/*.markdown", "**/*.html", "**/*.htm"}

// defaultExclude skips working directories.
var defaultExclude = []string{"**/.git/**", "**/node_modules/**", "**/processed/**"}

// Document is one discovered source file with its extracted text.
type Document struct {
	// Path is slash-separated, relative to the watch root.
	Path string

	// Name is the base file name.
	Name string

	// Text is the extracted document text.
	Text string
}

// Watcher watches a source folder and emits extracted documents for new and
// modified files.
type Watcher struct {
	root     string
	include  []string
	exclude  []string
	registry *Registry
	logger   *slog.Logger
	debounce time.Duration

	events chan Document

	mu       sync.Mutex
	pending  map[string]*time.Timer
	closed   bool
	inflight sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithGlobs sets the include and exclude patterns, slash-separated relative
// to the root with ** support.
func WithGlobs(include, exclude []string) WatcherOption {
	return func(w *Watcher) {
		if len(include) > 0 {
			w.include = include
		}
		if len(exclude) > 0 {
			w.exclude = exclude
		}
	}
}

// WithRegistry replaces the default extractor registry.
func WithRegistry(r *Registry) WatcherOption {
	return func(w *Watcher) { w.registry = r }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets the settle delay before a changed file is extracted.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher returns a Watcher over root.
func NewWatcher(root string, opts ...WatcherOption) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source folder %q is not a directory", root)
	}

	w := &Watcher{
		root:     root,
		include:  defaultInclude,
		exclude:  defaultExclude,
		registry: DefaultRegistry(),
		logger:   slog.Default(),
		debounce: defaultDebounce,
		events:   make(chan Document, 64),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Documents is the channel of extracted documents.
func (w *Watcher) Documents() <-chan Document {
	return w.events
}

// Scan walks the root once and emits every matching file that already
// exists.
func (w *Watcher) Scan(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if w.matches(path) {
			w.emit(ctx, path)
		}
		return nil
	})
}

// Run watches for changes until ctx ends. The events channel is closed on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	defer w.closeEvents()

	if err := w.addDirs(fw); err != nil {
		return err
	}
	w.logger.Info("watching source folder", "root", w.root, "include", w.include)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new folder", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !w.matches(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// closeEvents stops the pending debounce timers, waits for emissions already
// in flight, and closes the channel. A timer that fires during shutdown sees
// the closed flag instead of the closed channel.
func (w *Watcher) closeEvents() {
	w.mu.Lock()
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.inflight.Wait()
	close(w.events)
}

// schedule debounces per path: emission happens once the file has been quiet
// for the debounce window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.emit(ctx, path)
	})
}

func (w *Watcher) emit(ctx context.Context, path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read source file", "path", path, "error", err)
		return
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	text, err := w.registry.Extract(filepath.Base(path), data)
	if err != nil {
		w.logger.Warn("extraction failed", "path", rel, "error", err)
		return
	}

	doc := Document{Path: rel, Name: filepath.Base(path), Text: text}
	select {
	case w.events <- doc:
	case <-ctx.Done():
	}
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirs(fw *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
