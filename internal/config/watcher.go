package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/taskonaut/internal/logging"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a File when config.json changes on disk. It watches the
// directory so atomic replacements are seen.
type Watcher struct {
	file     *File
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Document)
	logger   *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching file's directory. onReload may be nil.
func NewWatcher(file *File, debounce time.Duration, onReload func(*Document)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(file.Path())); err != nil {
		fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		file:     file,
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		logger:   logging.NewLogger("config-watcher"),
	}, nil
}

// Start processes events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	target := filepath.Clean(w.file.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("config watcher error")
		case <-ctx.Done():
			w.stopTimer()
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	if err := w.file.Reload(); err != nil {
		w.logger.WithError(err).Warn("config reload failed, keeping previous settings")
		return
	}
	w.logger.Info("config reloaded")
	if w.onReload != nil {
		w.onReload(w.file.Document())
	}
}

func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}
