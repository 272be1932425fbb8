// Package watcher delivers file-save events from a workspace tree to a
// handler. It wraps fsnotify with recursive directory registration and
// filters out the noise editors produce around a save.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/suitesync/internal/logging"
)

// Watcher watches a directory tree and invokes the save handler for file
// writes. Directories created while watching are picked up automatically.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	logger  logging.Logger
	onSave  func(path string)
	ignored []string
}

// New prepares a watcher over root. onSave receives absolute file paths.
func New(root string, logger logging.Logger, onSave func(path string)) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    abs,
		fsw:     fsw,
		logger:  logger,
		onSave:  onSave,
		ignored: []string{"node_modules", ".git"},
	}
	if err := w.addRecursive(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	if w.skip(ev.Name) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Deleted or renamed between event and stat.
		return
	}
	if info.IsDir() {
		if ev.Op.Has(fsnotify.Create) {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn(ctx, "cannot watch new directory", "dir", ev.Name, "error", err)
			}
		}
		return
	}

	w.onSave(ev.Name)
}

// skip filters dotfiles, editor temp files, and ignored directories.
func (w *Watcher) skip(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == ".." {
			return true
		}
		for _, ign := range w.ignored {
			if seg == ign {
				return true
			}
		}
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != dir && (strings.HasPrefix(base, ".") || slicesContains(w.ignored, base)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func slicesContains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
