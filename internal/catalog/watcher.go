package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"battery_sizer/internal/metrics"
)

// Watcher reloads a tables YAML file into a Store whenever it changes.
// The parent directory is watched so editors that replace the file on save
// are picked up.
type Watcher struct {
	path     string
	store    *Store
	logger   *zap.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

func NewWatcher(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		store:    store,
		logger:   logger.Named("catalog-watcher"),
		debounce: 250 * time.Millisecond,
		watcher:  fw,
	}, nil
}

// Reload reads the file and replaces the store's tables.
func (w *Watcher) Reload() error {
	t, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	return w.store.Replace(t)
}

// Run processes file events until ctx is cancelled. A failed reload keeps the
// previous tables.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("tables file changed", zap.String("path", w.path), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-timer.C:
			if err := w.Reload(); err != nil {
				metrics.IncreaseCatalogReloadsTotalMetric("error")
				w.logger.Warn("tables reload failed, keeping previous tables", zap.String("path", w.path), zap.Error(err))
				continue
			}
			metrics.IncreaseCatalogReloadsTotalMetric("ok")
			w.logger.Info("tables reloaded", zap.String("path", w.path))
		}
	}
}
