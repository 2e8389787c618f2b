package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dou/internal/storage"
)

// Change kinds reported to an EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// EventCallback runs after every watcher-driven index change.
type EventCallback func(kind, path string)

const reconcileDelay = 200 * time.Millisecond

type watcher struct {
	db     ProjectIndex
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
	fsw    *fsnotify.Watcher
}

// Watch follows the projects directory with fsnotify and keeps the index
// current until ctx is cancelled. Directories created later are watched too.
// fsnotify reports a rename only for the old name, so renames schedule a
// debounced reconciliation pass against the directory listing.
func Watch(ctx context.Context, db ProjectIndex, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{db: db, store: store, root: root, logger: logger, cb: cb, fsw: fsw}
	if err := w.addTree(root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil
		case <-reconcile.C:
			w.reconcile()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				reconcile.Reset(reconcileDelay)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// handle applies one fsnotify event and reports whether a reconciliation
// pass is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			w.indexTree(ev.Name)
			return false
		}
	}
	if !storage.IsProjectFile(filepath.Base(ev.Name)) {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := ChangeUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = ChangeCreated
		}
		w.index(rel, kind)
	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)
	case ev.Op&fsnotify.Rename != 0:
		w.remove(rel)
		return true
	}
	return false
}

func (w *watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := IndexFile(w.db, rel, data, time.Now().UTC()); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.notify(kind, rel)
}

func (w *watcher) remove(rel string) {
	if err := w.db.DeleteProject(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.notify(ChangeDeleted, rel)
}

func (w *watcher) notify(kind, rel string) {
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// reconcile drops rows for files that are gone and indexes files whose
// checksum is unknown.
func (w *watcher) reconcile() {
	known, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range known {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, cs := range disk {
		if known[p] != cs {
			w.index(p, ChangeCreated)
		}
	}
}

// indexTree indexes project files already present in a new directory.
func (w *watcher) indexTree(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsProjectFile(d.Name()) {
			return nil
		}
		if rel, err := filepath.Rel(w.root, p); err == nil {
			w.index(filepath.ToSlash(rel), ChangeCreated)
		}
		return nil
	})
}

func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}
