package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/weavehq/weave/logging"
)

// Watcher keeps a current Index for a workspace directory by rescanning on
// file system events. Rescans are debounced so bursts of writes (editor
// saves, checkouts) coalesce into one.
type Watcher struct {
	provider *DirProvider
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   logging.Logger

	mu      sync.RWMutex
	index   Index
	timer   *time.Timer
	timerMu sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Debounce is the quiet period after the last event before a rescan.
	Debounce time.Duration
	Logger   logging.Logger
}

// NewWatcher creates a watcher over the provider's root. Call Start to begin
// watching and Stop to release resources.
func NewWatcher(provider *DirProvider, optFns ...func(o *WatcherOptions)) (*Watcher, error) {
	opts := WatcherOptions{Debounce: 200 * time.Millisecond}
	for _, fn := range optFns {
		fn(&opts)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		provider: provider,
		watcher:  fsw,
		debounce: opts.Debounce,
		logger:   logging.OrNoOp(opts.Logger),
		done:     make(chan struct{}),
	}, nil
}

// Start performs the initial scan, registers the directory tree and launches
// the event loop.
func (w *Watcher) Start() error {
	index, err := w.provider.Scan()
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	w.mu.Lock()
	w.index = index
	w.mu.Unlock()

	if err := w.addDirs(); err != nil {
		return fmt.Errorf("watch workspace: %w", err)
	}
	go w.eventLoop()
	w.logger.Info("file watcher started", "root", w.provider.Root(), "files", index.Len())
	return nil
}

// Index returns the current snapshot.
func (w *Watcher) Index() Index {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index
}

// Stop terminates the event loop and closes the underlying watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) addDirs() error {
	return filepath.WalkDir(w.provider.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.provider.Root() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// New directories need to be registered before their
			// contents produce events.
			if ev.Op.Has(fsnotify.Create) {
				_ = w.watcher.Add(ev.Name)
			}
			w.scheduleRescan()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleRescan() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.rescan)
}

func (w *Watcher) rescan() {
	select {
	case <-w.done:
		return
	default:
	}
	index, err := w.provider.Scan()
	if err != nil {
		w.logger.Error("rescan failed", "error", err)
		return
	}
	w.mu.Lock()
	w.index = index
	w.mu.Unlock()
	w.logger.Debug("file index refreshed", "files", index.Len())
}
