// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/apisketch/services/sketch/extract"
)

var watchTracer = otel.Tracer("aleutian.sketch.corpus")

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher keeps a Store in step with Java sources on disk.
//
// Description:
//
//	Run extracts everything under the roots once, then watches them.
//	Changed and created ".java" files are re-extracted in debounced
//	batches; removed files are forgotten. New directories are watched as
//	they appear. The extractor must be configured with the same Store, so
//	unchanged files are skipped and replaced documents are dropped.
//
// Thread Safety:
//
//	Run must not be called concurrently on the same Watcher.
type Watcher struct {
	extractor *extract.Extractor
	store     *Store
	roots     []string
	debounce  time.Duration
	logger    *slog.Logger
	onSync    func(extract.Stats)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSyncHook is called after every batch with its stats.
func WithSyncHook(fn func(extract.Stats)) WatcherOption {
	return func(w *Watcher) {
		w.onSync = fn
	}
}

// NewWatcher creates a watcher over roots.
//
// Inputs:
//
//	x     - Extractor configured with store. Must not be nil.
//	store - The corpus. Must not be nil.
//	roots - Directories to watch. At least one.
func NewWatcher(x *extract.Extractor, store *Store, roots []string, opts ...WatcherOption) (*Watcher, error) {
	if x == nil {
		return nil, fmt.Errorf("NewWatcher: extractor must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("NewWatcher: store must not be nil")
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("NewWatcher: at least one root is required")
	}
	w := &Watcher{
		extractor: x,
		store:     store,
		debounce:  DefaultDebounce,
		logger:    slog.Default(),
	}
	for _, r := range roots {
		w.roots = append(w.roots, filepath.Clean(r))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is canceled. It returns nil on cancellation and an
// error only if the roots cannot be watched or the first sync fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range w.roots {
		if err := w.addTree(fw, root); err != nil {
			return err
		}
	}

	if err := w.sync(ctx, w.roots, nil); err != nil {
		return err
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fw, ev, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			changed, removed := splitPending(pending)
			clear(pending)
			if err := w.sync(ctx, changed, removed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warn("corpus sync failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handleEvent records ev in pending and reports whether a sync is due.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]bool) bool {
	path := filepath.Clean(ev.Name)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(fw, path); err != nil {
				w.logger.Warn("watching new directory failed",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
			files, err := extract.CollectSources([]string{path})
			if err == nil {
				for _, f := range files {
					pending[f] = true
				}
			}
			return len(files) > 0
		}
	}

	if !strings.HasSuffix(path, ".java") {
		return false
	}
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		pending[path] = true
		return true
	}
	return false
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// sync re-extracts changed paths and forgets removed files.
func (w *Watcher) sync(ctx context.Context, changed, removed []string) error {
	ctx, span := watchTracer.Start(ctx, "corpus.Watcher.sync",
		oteltrace.WithAttributes(
			attribute.Int("changed", len(changed)),
			attribute.Int("removed", len(removed)),
		),
	)
	defer span.End()

	for _, path := range removed {
		if err := w.store.ForgetSource(ctx, path); err != nil {
			w.logger.Warn("forgetting removed source failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}

	var stats extract.Stats
	if len(changed) > 0 {
		em := extract.NewEmitter(io.Discard)
		var err error
		stats, err = w.extractor.Run(ctx, changed, em)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("syncing corpus: %w", err)
		}
	}

	w.logger.Info("corpus synced",
		slog.Int("changed", len(changed)),
		slog.Int("removed", len(removed)),
		slog.Int("documents", stats.Documents),
		slog.Int("unchanged", stats.Unchanged),
	)
	if w.onSync != nil {
		w.onSync(stats)
	}
	return nil
}

// splitPending separates paths that still exist from removed ones.
func splitPending(pending map[string]bool) (changed, removed []string) {
	for path := range pending {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			removed = append(removed, path)
			continue
		}
		changed = append(changed, path)
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}
