package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/saiuns/create-autofe-app/internal/errors"
	"github.com/saiuns/create-autofe-app/internal/logging"
)

// Watch is a running continuous-compile session.
type Watch struct {
	compiler *ExecCompiler
	watcher  *fsnotify.Watcher
	cb       Callbacks
	trigger  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Watch starts continuous compilation: one build immediately, then a
// rebuild whenever a tracked source file changes. The callbacks' OnDone
// fires once per completed compile, including the first; a failed rebuild
// reports through OnError and the loop keeps running.
func (c *ExecCompiler) Watch(ctx context.Context, cb Callbacks) (*Watch, error) {
	if _, err := os.Stat(c.opts.ProjectDir); err != nil {
		return nil, errors.FromError(err, errors.CodeWatchInit)
	}

	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(errors.CodeWatchInit).Wrap(err)
	}

	w := &Watch{
		compiler: c,
		watcher:  fsW,
		cb:       cb,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, src := range c.opts.Sources {
		if err := w.addDirsRecursive(src); err != nil {
			logging.Warn().Str("path", src).Err(err).Msg("source watch disabled")
		}
	}

	go w.eventLoop(ctx)
	go w.buildLoop(ctx)

	return w, nil
}

// Stop stops watching and waits for the loops to exit.
func (w *Watch) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
	<-w.doneCh
}

// eventLoop turns raw filesystem events into debounced rebuild triggers.
func (w *Watch) eventLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			// A newly created directory must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addDirsRecursive(event.Name)
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.compiler.opts.Debounce, func() {
				select {
				case w.trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("source watcher error")
		}
	}
}

// buildLoop serializes builds: the initial one, then one per trigger.
// Triggers arriving during a build coalesce into a single rebuild.
func (w *Watch) buildLoop(ctx context.Context) {
	defer close(w.doneCh)

	w.build(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-w.trigger:
			w.build(ctx)
		}
	}
}

func (w *Watch) build(ctx context.Context) {
	stats, err := w.compiler.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if w.cb.OnError != nil {
			w.cb.OnError(err)
		}
		return
	}
	if w.cb.OnDone != nil {
		w.cb.OnDone(stats)
	}
}

// addDirsRecursive adds a directory tree to the watcher, skipping ignored
// directories. Inaccessible paths are skipped rather than failing the
// whole watch.
func (w *Watch) addDirsRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Debug().Str("path", path).Err(err).Msg("watch add failed")
		}
		return nil
	})
}

// shouldIgnore checks a path against the ignore patterns: a pattern
// matches the base name as a glob, or any path segment directly.
func (w *Watch) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	for _, pattern := range w.compiler.opts.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		for _, segment := range strings.Split(filepath.ToSlash(fullPath), "/") {
			if segment == pattern {
				return true
			}
		}
	}
	return false
}
