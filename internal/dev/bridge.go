package dev

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/saiuns/create-autofe-app/internal/errors"
	"github.com/saiuns/create-autofe-app/internal/logging"
)

// EventKind is a normalized filesystem event kind.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventChanged EventKind = "changed"
	EventRemoved EventKind = "removed"
)

// normalizeEvent maps a raw fsnotify operation onto the added/changed/
// removed vocabulary. Unrecognized operations produce no notification.
func normalizeEvent(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventAdded, true
	case op.Has(fsnotify.Write):
		return EventChanged, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventRemoved, true
	default:
		return "", false
	}
}

// Bridge feeds two out-of-band change sources into the live-reload
// channel: a watch on the compiled-output directory and a watch on the
// static-public directory. It is additive to the compiler's own done
// events, because files written by processes outside the bundler are
// invisible to the compiler's internal watch.
//
// Only changes after session start are observed; pre-existing files are
// non-events.
type Bridge struct {
	reload    *ReloadServer
	outputDir string
	publicDir string

	// externalBuild gates the output-directory watch: output events
	// broadcast only when an out-of-band build was announced, so the
	// bundler's own writes (already covered by its hot-update path)
	// do not force duplicate full refreshes.
	externalBuild atomic.Bool

	outputW  *fsnotify.Watcher
	publicW  *fsnotify.Watcher
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewBridge creates a bridge for the given directories.
func NewBridge(reload *ReloadServer, outputDir, publicDir string) *Bridge {
	return &Bridge{
		reload:    reload,
		outputDir: outputDir,
		publicDir: publicDir,
		stopCh:    make(chan struct{}),
	}
}

// Start attaches both watches. A watch that cannot be established (for
// example from missing permissions) is disabled with a warning rather
// than failing the session: development convenience must not block on
// file-permission issues.
func (b *Bridge) Start() {
	b.outputW = b.watch(b.outputDir, b.handleOutputEvent)
	b.publicW = b.watch(b.publicDir, b.handlePublicEvent)
}

// MarkExternalBuildComplete announces that an out-of-band build has just
// finished writing to the output directory. The next output-directory
// event broadcasts a full refresh and clears the mark.
func (b *Bridge) MarkExternalBuildComplete() {
	b.externalBuild.Store(true)
}

// Stop detaches both watches.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		if b.outputW != nil {
			b.outputW.Close()
		}
		if b.publicW != nil {
			b.publicW.Close()
		}
	})
	b.wg.Wait()
}

// watch starts one watcher covering dir and every subdirectory, and
// returns it, or nil if the watch could not be established.
func (b *Bridge) watch(dir string, handle func(fsnotify.Event)) *fsnotify.Watcher {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		logging.Debug().Str("dir", dir).Err(err).Msg("watch skipped")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		ae := errors.New(errors.CodeWatchInit).Wrap(err)
		logging.Warn().Str("dir", dir).Err(ae).Msg("watch disabled")
		return nil
	}
	if err := addDirsRecursive(w, dir); err != nil {
		// Permission problems disable this watch; the session stays up.
		ae := errors.New(errors.CodeWatchInit).Wrap(err)
		if os.IsPermission(err) {
			ae = errors.New(errors.CodeWatchPermission).
				WithDetailf("Cannot watch %s", dir).
				Wrap(err)
		}
		logging.Warn().Str("dir", dir).Err(ae).Msg("watch disabled")
		w.Close()
		return nil
	}

	b.wg.Add(1)
	go b.loop(w, handle)
	return w
}

// addDirsRecursive attaches dir and its whole subtree to the watcher.
// fsnotify watches a single directory level, so nested asset changes are
// only seen when every subdirectory is added. A failure on the root
// aborts; inaccessible nested paths are skipped.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			if path == dir {
				return err
			}
			logging.Debug().Str("path", path).Err(err).Msg("watch add failed")
		}
		return nil
	})
}

func (b *Bridge) loop(w *fsnotify.Watcher, handle func(fsnotify.Event)) {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopCh:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			// A directory created after session start must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addDirsRecursive(w, event.Name)
				}
			}
			handle(event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("bridge watcher error")
		}
	}
}

// handleOutputEvent broadcasts a refresh only when an external build was
// announced; the flag is checked and cleared atomically so one external
// build produces exactly one broadcast however many files it wrote.
func (b *Bridge) handleOutputEvent(fsnotify.Event) {
	if b.externalBuild.CompareAndSwap(true, false) {
		logging.Info().Msg("external build output changed, reloading browsers")
		b.reload.BroadcastContentChanged()
	}
}

// handlePublicEvent broadcasts on every recognized static-asset change:
// static assets have no hot-update path of their own, so every change
// forces a full refresh.
func (b *Bridge) handlePublicEvent(event fsnotify.Event) {
	kind, ok := normalizeEvent(event.Op)
	if !ok {
		return
	}

	logging.Info().Msgf("File %s was %s", filepath.Base(event.Name), kind)
	b.reload.BroadcastContentChanged()
}
