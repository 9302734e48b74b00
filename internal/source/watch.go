package source

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 300 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   *zap.Logger
}

// WithDebounce sets how long writes must settle before onChange runs.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.debounce = d }
}

// WithWatchLogger sets a logger for watch events.
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = l }
}

// Watch calls onChange whenever the file at path is written or replaced,
// debounced so a burst of writes produces one call. It watches the parent
// directory so editors that save via rename are still seen. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, path string, onChange func(), opts ...WatchOption) error {
	cfg := watchConfig{debounce: defaultDebounce, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	cfg.logger.Debug("watching document", zap.String("path", abs))

	var mu sync.Mutex
	var pending *time.Timer
	defer func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg.logger.Debug("document changed", zap.String("op", ev.Op.String()), zap.String("path", abs))
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(cfg.debounce, func() {
				if ctx.Err() == nil {
					onChange()
				}
			})
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn("watch error", zap.Error(err))
		}
	}
}
