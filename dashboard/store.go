package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/paccolamano/dashkit/debounce"
)

// Store holds the dataset served by the dashboard. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	data    Dataset
	updated time.Time
}

// NewStore returns a Store serving data.
func NewStore(data Dataset) *Store {
	return &Store{data: data, updated: time.Now()}
}

// Snapshot returns a copy of the current dataset and the time it was loaded.
func (s *Store) Snapshot() (Dataset, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Dataset{
		Stats:    s.data.Stats,
		Users:    slices.Clone(s.data.Users),
		Sessions: slices.Clone(s.data.Sessions),
	}, s.updated
}

// Replace swaps the served dataset.
func (s *Store) Replace(data Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	s.updated = time.Now()
}

// LoadDataset reads and validates a YAML dataset file.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}

	var data Dataset
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}

	if err := data.normalize(); err != nil {
		return Dataset{}, fmt.Errorf("invalid dataset: %w", err)
	}

	return data, nil
}

// Watcher reloads a Store whenever its dataset file changes. Bursts of
// file-system events, as produced by editors saving a file, are collapsed
// into a single reload. A file that fails to load is logged and the previous
// dataset stays in place.
//
// Watcher implements gracely.Service.
type Watcher struct {
	store  *Store
	path   string
	delay  time.Duration
	logger Logger

	stop     chan struct{}
	stopOnce sync.Once
	// reloaded, when set, receives the outcome of every reload.
	reloaded func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadDelay sets the quiet period before reloading. Default is debounce.DefaultDelay.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithWatcherLogger sets the logger. Default is slog.Default().
func WithWatcherLogger(l Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher returns a Watcher loading path into store.
func NewWatcher(store *Store, path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:  store,
		path:   filepath.Clean(path),
		delay:  debounce.DefaultDelay,
		logger: slog.Default(),
		stop:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Name implements gracely.Service.
func (w *Watcher) Name() string {
	return "dataset-watcher"
}

// Run watches the directory of the dataset file until ctx is done or
// Shutdown is called.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Editors often replace the file instead of writing it in place, which
	// drops a watch on the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	reload := debounce.New(w.reload, debounce.WithDelay(w.delay), debounce.WithLogger(w.logger))
	defer reload.Cancel()

	w.logger.LogAttrs(ctx, slog.LevelInfo, "watching dataset", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reload.Call(w.path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.LogAttrs(ctx, slog.LevelWarn, "dataset watcher error", slog.String("error", err.Error()))
		}
	}
}

// Shutdown stops Run.
func (w *Watcher) Shutdown(_ context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	return nil
}

func (w *Watcher) reload(path string) {
	data, err := LoadDataset(path)
	if err != nil {
		w.logger.LogAttrs(context.Background(), slog.LevelError, "dataset reload failed",
			slog.String("path", path), slog.String("error", err.Error()))
	} else {
		w.store.Replace(data)
		w.logger.LogAttrs(context.Background(), slog.LevelInfo, "dataset reloaded",
			slog.String("path", path), slog.Int("users", len(data.Users)))
	}

	if w.reloaded != nil {
		w.reloaded(err)
	}
}
