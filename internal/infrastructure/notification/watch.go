package notification

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/fileutil"
)

// reloadDelay coalesces the bursts of events editors emit on save.
const reloadDelay = 250 * time.Millisecond

// WatchOverride reloads the override catalog at path into c each time the
// file is written or replaced, until ctx is done. A reload that fails keeps
// the templates already loaded. onReload, when not nil, is called after
// every reload attempt.
func (c *Catalog) WatchOverride(ctx context.Context, path string, onReload func(error)) error {
	const op = "notification.WatchOverride"

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return dterrors.IOWrap(err, op, "failed to create file watcher")
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so the directory is watched.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return dterrors.IOWrap(err, op, "failed to watch "+filepath.Dir(target))
	}

	logger := slog.Default().With("component", "catalog_watcher", "path", target)
	logger.Debug("watching template catalog")

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(reloadDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", "error", err)

		case <-timer.C:
			err := c.reload(target)
			if err != nil {
				logger.Warn("template catalog reload failed, keeping previous templates", "error", err)
			} else {
				logger.Info("template catalog reloaded")
			}
			if onReload != nil {
				onReload(err)
			}
		}
	}
}

func (c *Catalog) reload(path string) error {
	data, err := fileutil.ReadFileLimited(path, maxCatalogBytes)
	if err != nil {
		return dterrors.ConfigWrap(err, "notification.reload", "failed to read template catalog "+path)
	}
	return c.Load(data)
}
