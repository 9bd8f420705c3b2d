// Package reload keeps a matcher in sync with its dictionary file.
//
// A Watcher compiles the file once, then recompiles it whenever the file is
// written, created or renamed into place, and swaps the new matcher in
// atomically. Readers call Matcher for the current version; a matcher they
// already hold stays valid. A failed recompile keeps the previous matcher.
package reload

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregx/actrie"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before a
// recompile. Editors often produce several events per save.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Config is used for every compile.
	Config actrie.Config

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// OnReload, when set, is called after every recompile triggered by a
	// file event, with the matcher now in service and the compile error, if
	// any.
	OnReload func(*actrie.Matcher, error)
}

// Watcher serves the latest successfully compiled matcher of one file.
type Watcher struct {
	path     string
	config   actrie.Config
	debounce time.Duration
	onReload func(*actrie.Matcher, error)
	log      *slog.Logger

	cur      atomic.Pointer[actrie.Matcher]
	reloads  atomic.Uint64
	failures atomic.Uint64

	fw       *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New compiles path and starts watching it. The initial compile must
// succeed.
func New(path string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		config:   opts.Config,
		debounce: opts.Debounce,
		onReload: opts.OnReload,
		log:      opts.Config.Logger,
		done:     make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}
	w.log = w.log.With("path", abs)

	m, err := actrie.CompileFile(abs, w.config)
	if err != nil {
		return nil, err
	}
	w.cur.Store(m)

	// Watch the directory: replacing the file by rename drops a watch on the
	// file itself.
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("reload: watch %s: %w", filepath.Dir(abs), err)
	}
	w.fw = fw

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Matcher returns the current matcher.
func (w *Watcher) Matcher() *actrie.Matcher {
	return w.cur.Load()
}

// Stats reports how many recompiles succeeded and failed.
func (w *Watcher) Stats() (reloads, failures uint64) {
	return w.reloads.Load(), w.failures.Load()
}

// Reload recompiles the file now. On failure the current matcher is kept and
// the error returned.
func (w *Watcher) Reload() error {
	m, err := actrie.CompileFile(w.path, w.config)
	if err != nil {
		w.failures.Add(1)
		w.log.Error("dictionary reload failed", "err", err)
		return err
	}
	w.cur.Store(m)
	w.reloads.Add(1)
	w.log.Info("dictionary reloaded", "entries", m.Stats().Entries)
	return nil
}

// Close stops watching. The current matcher stays usable. Close is safe to
// call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				w.log.Warn("dictionary removed, keeping current matcher")
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			err := w.Reload()
			if w.onReload != nil {
				w.onReload(w.cur.Load(), err)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Error("watch error", "err", err)
				continue
			}
			// Events were lost; the file may have changed.
			w.log.Warn("watch queue overflowed, reloading")
			_ = w.Reload()

		case <-w.done:
			return
		}
	}
}
