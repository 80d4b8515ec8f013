package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/revenuepulse/pulse-mcp/internal/logger"
)

var log = logger.ForComponent("config")

// Watch re-reads the config file whenever it changes and applies the
// log level, so verbosity can be adjusted without a restart. Only the
// log level is hot-reloadable; everything else is read once at startup.
func Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Warn("config reload failed", "path", path, "error", err)
					continue
				}
				logger.SetLevel(cfg.LogLevel)
				log.Info("log level applied from config file", "level", cfg.LogLevel)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", "error", err)
			}
		}
	}()

	return nil
}
