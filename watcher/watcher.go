// Package watcher drives the engine's execution modes. In once mode it runs
// a single pass; in watch mode it polls the tree on an interval, fingerprints
// every candidate file, and reruns the pipeline only when content actually
// changed. Filesystem notifications, when enabled, wake the poller early but
// never overlap passes: scans and rebuilds are strictly serialized.
package watcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vibegallery/vibegallery/config"
	"github.com/vibegallery/vibegallery/pipeline"
)

// Changes lists what differed between two fingerprint scans.
type Changes struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Any reports whether anything changed.
func (c Changes) Any() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 || len(c.Modified) > 0
}

// Watcher owns the fingerprint map and the pass loop.
type Watcher struct {
	cfg    *config.Config
	logger *slog.Logger
	pipe   *pipeline.Pipeline

	// fingerprints maps RelPath to an MD5 content digest. MD5 is for change
	// detection only, not security.
	fingerprints map[string]string
	primed       bool
}

// New creates a watcher around a fresh pipeline.
func New(cfg *config.Config, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:          cfg,
		logger:       logger,
		pipe:         pipeline.New(cfg, logger),
		fingerprints: make(map[string]string),
	}
}

// RunOnce executes a single pass and returns its error, if any.
func (w *Watcher) RunOnce(ctx context.Context) error {
	_, err := w.pipe.Run(ctx)
	return err
}

// Run executes the watch loop until ctx is cancelled. An in-flight pass
// completes before the loop exits; per-pass failures are logged and the loop
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	wake := make(chan struct{}, 1)
	if w.cfg.NotifyEnabled() {
		if err := w.startNotify(ctx, wake); err != nil {
			w.logger.Warn("filesystem notifications unavailable, polling only", "error", err)
		}
	}

	w.logger.Info("watching",
		"root", w.cfg.Scan.Root,
		"interval", w.cfg.Watch.Interval,
		"notify", w.cfg.NotifyEnabled())

	// Initial pass establishes the manifest and the fingerprint baseline.
	w.tick(ctx)

	ticker := time.NewTicker(w.cfg.Watch.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		case <-wake:
			w.tick(ctx)
		}
	}
}

// tick performs one scan and, when the tree changed, one rebuild.
func (w *Watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	current, changes := w.scan()
	rebuild := !w.primed || changes.Any()
	w.fingerprints = current
	w.primed = true

	if !rebuild {
		return
	}
	if changes.Any() {
		w.logger.Info("changes detected",
			"added", len(changes.Added),
			"removed", len(changes.Removed),
			"modified", len(changes.Modified))
		for _, p := range changes.Added {
			w.logger.Debug("file added", "path", p)
		}
		for _, p := range changes.Removed {
			w.logger.Debug("file removed", "path", p)
		}
		for _, p := range changes.Modified {
			w.logger.Debug("file modified", "path", p)
		}
	}

	if _, err := w.pipe.Run(ctx); err != nil {
		// The previous manifest stays intact; the next tick retries.
		w.logger.Error("pass failed", "error", err)
	}
}

// scan fingerprints the current candidate set and diffs it against the
// previous scan.
func (w *Watcher) scan() (map[string]string, Changes) {
	var changes Changes
	current := make(map[string]string)

	files, err := w.pipe.NewWalker().Walk()
	if err != nil {
		w.logger.Warn("scan failed, keeping previous state", "error", err)
		return w.fingerprints, changes
	}

	for _, file := range files {
		digest, err := fingerprint(file.AbsPath)
		if err != nil {
			w.logger.Warn("fingerprint failed", "path", file.RelPath, "error", err)
			continue
		}
		current[file.RelPath] = digest

		previous, seen := w.fingerprints[file.RelPath]
		switch {
		case !seen:
			changes.Added = append(changes.Added, file.RelPath)
		case previous != digest:
			changes.Modified = append(changes.Modified, file.RelPath)
		}
	}
	for path := range w.fingerprints {
		if _, ok := current[path]; !ok {
			changes.Removed = append(changes.Removed, path)
		}
	}
	return current, changes
}

// fingerprint computes the content digest of one file.
func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// startNotify wires fsnotify wake-ups: relevant events arm a debounce timer
// whose expiry nudges the poll loop. The loop itself still decides whether
// anything changed, so spurious events cost one fingerprint scan at most.
func (w *Watcher) startNotify(ctx context.Context, wake chan<- struct{}) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.addWatchesRecursive(fsw, w.cfg.Scan.Root); err != nil {
		fsw.Close()
		return err
	}

	go func() {
		defer fsw.Close()

		debounce := time.NewTimer(w.cfg.Watch.Debounce)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						w.addWatch(fsw, event.Name)
					}
				}
				if strings.EqualFold(filepath.Ext(event.Name), ".html") {
					debounce.Reset(w.cfg.Watch.Debounce)
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("notify error", "error", err)

			case <-debounce.C:
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

// addWatchesRecursive watches the root and every eligible directory below it.
func (w *Watcher) addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("cannot watch path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		w.addWatch(fsw, path)
		return nil
	})
}

func (w *Watcher) addWatch(fsw *fsnotify.Watcher, path string) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return
	}
	if err := fsw.Add(path); err != nil {
		w.logger.Warn("failed to watch directory", "path", path, "error", err)
	} else {
		w.logger.Debug("watching directory", "path", path)
	}
}
