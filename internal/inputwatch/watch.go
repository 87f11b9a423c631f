// Package inputwatch feeds a directory of text files to the reconciler.
//
// PrimaryFile is the primary context. Every other *.txt file directly inside
// the directory is a secondary channel named after the file without its
// extension. Writing a file updates its input, removing or renaming it drops
// the input, and every change triggers a reconciliation.
package inputwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/fsutil"
	"github.com/specialistvlad/branchtalk/internal/reconciler"
)

const (
	PrimaryFile     = "context.txt"
	Extension       = ".txt"
	DefaultDebounce = 250 * time.Millisecond
)

// Sink receives inputs and reconciliation triggers. *reconciler.Reconciler
// implements it.
type Sink interface {
	SetPrimary(content string)
	SetChannel(id, content string)
	RemoveChannel(id string) bool
	Reconcile(ctx context.Context) (*reconciler.Report, error)
}

var _ Sink = (*reconciler.Reconciler)(nil)

// Watcher maps file events in one directory onto a Sink.
type Watcher struct {
	dir      string
	sink     Sink
	debounce time.Duration

	wg sync.WaitGroup
}

// New creates a watcher for dir. A debounce of zero triggers on every event.
func New(dir string, sink Sink, debounce time.Duration) *Watcher {
	return &Watcher{dir: dir, sink: sink, debounce: debounce}
}

// Scan loads every input file currently in the directory into the sink
// without triggering.
func (w *Watcher) Scan(ctx context.Context) error {
	files, err := fsutil.FilesWithExtension(w.dir, Extension)
	if err != nil {
		return fmt.Errorf("scan inputs %s: %w", w.dir, err)
	}
	for _, f := range files {
		if err := w.load(ctx, f); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Inputs scanned.", "dir", w.dir, "files", len(files))
	return nil
}

// Run scans the directory, triggers a first reconciliation and then follows
// file events until ctx is done. It waits for triggered reconciliations to
// return before returning itself.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("dir", w.dir)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	if err := w.Scan(ctx); err != nil {
		return err
	}
	w.trigger(ctx)
	defer w.wg.Wait()

	logger.Info("Watching inputs.")
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("Input watcher stopped.")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ctx, event) {
				continue
			}
			if w.debounce <= 0 {
				w.trigger(ctx)
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
			w.trigger(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}

// handle applies one event to the sink and reports whether an input changed.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != Extension || filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return false
	}
	logger := ctxlog.FromContext(ctx)

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.drop(filepath.Base(event.Name))
		logger.Info("Input removed.", "file", filepath.Base(event.Name))
		return true
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if err := w.load(ctx, event.Name); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				w.drop(filepath.Base(event.Name))
				return true
			}
			logger.Warn("Could not read input file.", "file", event.Name, "error", err)
			return false
		}
		logger.Debug("Input updated.", "file", filepath.Base(event.Name), "op", event.Op.String())
		return true
	}
	return false
}

func (w *Watcher) load(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(string(raw))

	name := filepath.Base(path)
	if name == PrimaryFile {
		w.sink.SetPrimary(content)
		return nil
	}
	w.sink.SetChannel(ChannelID(name), content)
	return nil
}

func (w *Watcher) drop(name string) {
	if name == PrimaryFile {
		w.sink.SetPrimary("")
		return
	}
	w.sink.RemoveChannel(ChannelID(name))
}

func (w *Watcher) trigger(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		rep, err := w.sink.Reconcile(ctx)
		logger := ctxlog.FromContext(ctx)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				logger.Error("Reconciliation aborted.", "error", err)
			}
		case rep.Coalesced:
			logger.Debug("Trigger folded into the running reconciliation.")
		case rep.Failed():
			logger.Warn("Reconciliation finished with collaborator errors.", "path", rep.Path, "errors", len(rep.Errors))
		default:
			logger.Debug("Reconciliation finished.", "path", rep.Path, "version", rep.Version)
		}
	}()
}

// ChannelID is the channel a file name maps to.
func ChannelID(name string) string {
	return strings.TrimSuffix(filepath.Base(name), Extension)
}
