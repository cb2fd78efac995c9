package config

import (
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the active config file into m whenever it changes on disk,
// generalizing the teacher's main.go watchConfigFile prototype into the
// config manager itself so a long-running gateway process picks up
// provider/credential/router edits without a restart. It blocks until
// stop is closed or the watcher errors out, so callers run it in its own
// goroutine.
func (m *Manager) Watch(logger *slog.Logger, stop <-chan struct{}) {
	path := m.yamlPath
	if _, err := os.Stat(m.yamlPath); err != nil {
		path = m.jsonPath
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("config: init watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		logger.Error("config: add watcher", "path", path, "error", err)
		return
	}

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, err := m.Load(); err != nil {
				logger.Error("config: reload after change", "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config: watcher error", "error", err)
		}
	}
}
