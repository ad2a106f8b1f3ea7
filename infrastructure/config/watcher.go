package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"notegraph/application/physics"
)

// ForceWatcher watches a force-settings JSON file for changes so the
// simulation can be tuned while it runs. Invalid settings are rejected and
// the current ones stay active.
type ForceWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  physics.ForceSettings
	mu       sync.RWMutex
	onChange []func(physics.ForceSettings)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewForceWatcher creates a watcher over a force-settings file
func NewForceWatcher(path string, logger *zap.Logger) (*ForceWatcher, error) {
	settings, err := loadForceSettings(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial force settings: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch force settings file: %w", err)
	}

	// Also watch the directory for atomic saves (rename operations).
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch force settings directory", zap.Error(err))
	}

	return &ForceWatcher{
		path:    path,
		watcher: watcher,
		current: settings,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *ForceWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Force settings watcher started", zap.String("path", w.path))
}

// Stop stops watching for changes
func (w *ForceWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Force settings watcher stopped")
}

// OnChange registers a callback for validated settings changes
func (w *ForceWatcher) OnChange(handler func(physics.ForceSettings)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the active settings
func (w *ForceWatcher) Current() physics.ForceSettings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// watchLoop is the main loop that watches for file changes
func (w *ForceWatcher) watchLoop() {
	// Debounce timer to avoid multiple reloads on editor write patterns.
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

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
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *ForceWatcher) handleChange() {
	w.logger.Info("Force settings file changed, reloading", zap.String("path", w.path))

	settings, err := loadForceSettings(w.path)
	if err != nil {
		w.logger.Error("Failed to reload force settings", zap.Error(err))
		return
	}

	if err := settings.Validate(); err != nil {
		w.logger.Error("Invalid force settings, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = settings
	handlers := w.onChange
	w.mu.Unlock()

	if old != settings {
		w.logger.Info("Force settings reloaded",
			zap.Float64("repulsion_strength", settings.RepulsionStrength),
			zap.Float64("spring_stiffness", settings.SpringStiffness),
			zap.Float64("center_strength", settings.CenterStrength),
			zap.Float64("velocity_damping", settings.VelocityDamping),
		)
	}

	for _, handler := range handlers {
		handler(settings)
	}
}

// loadForceSettings reads settings from a JSON file, filling unset fields
// from the defaults
func loadForceSettings(path string) (physics.ForceSettings, error) {
	settings := physics.DefaultForceSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read force settings file: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse force settings JSON: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}
