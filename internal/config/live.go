// internal/config/live.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"

	"github.com/fsnotify/fsnotify"
)

// Live holds the current configuration and swaps it atomically on reload.
// It is the db.ConnectionSource the tenant resolver reads, so connection changes in the
// file apply to the next resolution without a restart. Pool sizing and the driver are
// read once at startup.
type Live struct {
	loader  *Loader
	logger  *slog.Logger
	current atomic.Pointer[AppConfig]
}

var _ db.ConnectionSource = (*Live)(nil)

// NewLive loads the initial configuration. A nil logger means the process logger
// (util.GetLogger), looked up whenever something is logged.
func NewLive(loader *Loader, logger *slog.Logger) (*Live, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	l := &Live{loader: loader, logger: logger}
	l.current.Store(cfg)
	return l, nil
}

func (l *Live) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return util.GetLogger()
}

// Config returns the current snapshot. Callers must not modify it.
func (l *Live) Config() *AppConfig {
	return l.current.Load()
}

// DefaultConnection implements db.ConnectionSource.
func (l *Live) DefaultConnection() string {
	return l.current.Load().DB.DefaultConnection
}

// ConnectionString implements db.ConnectionSource.
func (l *Live) ConnectionString(id string) (string, bool) {
	cs, ok := l.current.Load().DB.Connections[id]
	return cs, ok
}

// Reload re-reads every source. On failure the previous snapshot stays in effect.
func (l *Live) Reload() error {
	cfg, err := l.loader.Load()
	if err != nil {
		return err
	}
	l.current.Store(cfg)
	return nil
}

// Watch reloads the configuration whenever the YAML file is written, until ctx is done.
// The directory is watched so that editors replacing the file are noticed too.
func (l *Live) Watch(ctx context.Context) error {
	if l.loader.Path() == "" {
		return nil
	}
	path, err := filepath.Abs(l.loader.Path())
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
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
				if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := l.Reload(); err != nil {
					l.log().Error("Configuration reload failed, keeping previous configuration", "path", path, "error", err)
					continue
				}
				l.log().Info("Configuration reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log().Warn("Configuration watcher error", "error", err)
			}
		}
	}()
	return nil
}
