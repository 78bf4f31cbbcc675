package daemon

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mackenziebowes/CanadaSpends/internal/logging"
)

// WatcherStats counts filesystem activity seen by a DataWatcher.
type WatcherStats struct {
	Events        int       `json:"events"`
	Reloads       int       `json:"reloads"`
	Errors        int       `json:"errors"`
	LastEventTime time.Time `json:"last_event_time"`
	LastEventPath string    `json:"last_event_path,omitempty"`
}

// DataWatcher watches a data directory tree and calls onChange once a burst
// of JSON file changes has settled.
type DataWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	logger      *zap.Logger
	onChange    func()
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// NewDataWatcher creates a watcher for dir. It does not start watching.
func NewDataWatcher(dir string, logger *zap.Logger, onChange func()) (*DataWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DataWatcher{
		watcher:     watcher,
		dir:         dir,
		logger:      logging.OrNop(logger),
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds every directory under the data dir and begins processing
// events in the background.
func (dw *DataWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	if dw.running {
		dw.mu.Unlock()
		return nil
	}
	dw.running = true
	dw.mu.Unlock()

	if err := dw.addTree(dw.dir); err != nil {
		dw.logger.Warn("watcher: initial watch failed", zap.String("dir", dw.dir), zap.Error(err))
	} else {
		dw.logger.Info("watcher: watching data directory", zap.String("dir", dw.dir))
	}

	go dw.run(ctx)
	return nil
}

// Stop ends event processing and closes the underlying watcher.
func (dw *DataWatcher) Stop() {
	dw.mu.Lock()
	if !dw.running {
		dw.mu.Unlock()
		_ = dw.watcher.Close()
		return
	}
	dw.running = false
	dw.mu.Unlock()

	close(dw.stopCh)
	<-dw.doneCh

	if err := dw.watcher.Close(); err != nil {
		dw.logger.Error("watcher: close failed", zap.Error(err))
	}
}

// Stats returns a copy of the watcher counters.
func (dw *DataWatcher) Stats() WatcherStats {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.stats
}

func (dw *DataWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return dw.watcher.Add(path)
		}
		return nil
	})
}

func (dw *DataWatcher) run(ctx context.Context) {
	defer close(dw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-dw.stopCh:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("watcher error", zap.Error(err))
			dw.mu.Lock()
			dw.stats.Errors++
			dw.mu.Unlock()

		case <-debounceTicker.C:
			dw.processDebounced()
		}
	}
}

func (dw *DataWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := dw.addTree(event.Name); err != nil {
				dw.logger.Warn("watcher: add failed", zap.String("dir", event.Name), zap.Error(err))
			}
			dw.mark(event.Name)
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	dw.logger.Debug("watcher: event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	dw.mark(event.Name)
}

func (dw *DataWatcher) mark(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	now := time.Now()
	dw.stats.Events++
	dw.stats.LastEventTime = now
	dw.stats.LastEventPath = path
	dw.debounceMap[path] = now
}

// processDebounced fires onChange once every pending path has been quiet
// for the debounce window.
func (dw *DataWatcher) processDebounced() {
	dw.mu.Lock()
	if len(dw.debounceMap) == 0 {
		dw.mu.Unlock()
		return
	}
	now := time.Now()
	for _, t := range dw.debounceMap {
		if now.Sub(t) < dw.debounceDur {
			dw.mu.Unlock()
			return
		}
	}
	n := len(dw.debounceMap)
	dw.debounceMap = make(map[string]time.Time)
	dw.stats.Reloads++
	dw.mu.Unlock()

	dw.logger.Info("watcher: data changed", zap.Int("paths", n))
	if dw.onChange != nil {
		dw.onChange()
	}
}
