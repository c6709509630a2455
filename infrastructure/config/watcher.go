package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the configuration file when it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *Config
	mu       sync.RWMutex
	onChange []func(prev, next *Config)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce time.Duration
}

// NewWatcher watches the file cfg was loaded from.
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("configuration was not loaded from a file")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors save by rename, so the directory is watched rather than the
	// file.
	if err := fw.Add(filepath.Dir(cfg.File)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     cfg.File,
		watcher:  fw,
		current:  cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload re-runs Load. An invalid file keeps the current configuration.
func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	next, err := Load(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = next
	handlers := append([]func(prev, next *Config){}, w.onChange...)
	w.mu.Unlock()

	w.logChanges(old, next)
	for _, h := range handlers {
		h(old, next)
	}
}

func (w *Watcher) logChanges(old, next *Config) {
	var changes []string
	if old.Editor.OverlayDebounceMs != next.Editor.OverlayDebounceMs {
		changes = append(changes, fmt.Sprintf("overlay_debounce_ms: %d -> %d", old.Editor.OverlayDebounceMs, next.Editor.OverlayDebounceMs))
	}
	if old.Editor.DefaultDetailLevel != next.Editor.DefaultDetailLevel {
		changes = append(changes, fmt.Sprintf("default_detail_level: %d -> %d", old.Editor.DefaultDetailLevel, next.Editor.DefaultDetailLevel))
	}
	if old.Editor.Layout != next.Editor.Layout {
		changes = append(changes, "layout")
	}
	if old.Logging.Level != next.Logging.Level {
		changes = append(changes, fmt.Sprintf("log level: %s -> %s", old.Logging.Level, next.Logging.Level))
	}
	w.logger.Info("Configuration reloaded", zap.String("path", w.path), zap.Strings("changes", changes))
}

// OnChange registers a callback run after each successful reload.
func (w *Watcher) OnChange(handler func(prev, next *Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// GetCurrent returns the current configuration
func (w *Watcher) GetCurrent() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
