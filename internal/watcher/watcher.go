// Package watcher keeps a local directory in sync with the document index.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/service"
)

// AuditWriter persists a record of every watch-triggered ingest. A nil
// writer disables auditing.
type AuditWriter interface {
	WriteAudit(action, resource, resourceID, details, ip, userAgent string) error
}

// Watcher ingests files dropped into a directory and removes documents whose
// source file disappears.
type Watcher struct {
	ingest *service.IngestService
	audit  AuditWriter
	dir    string
}

// New creates a watcher over dir.
func New(ingest *service.IngestService, audit AuditWriter, dir string) *Watcher {
	return &Watcher{ingest: ingest, audit: audit, dir: dir}
}

// Run performs an initial sync of the directory, then blocks processing
// filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.syncExisting(ctx); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching ingest directory", "dir", w.dir)

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isSupported(event.Name) {
				continue
			}

			// Editors often write via a temp file plus rename, so Create and
			// Write are handled identically: drop the old version, re-ingest.
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if err := w.reindex(ctx, event.Name); err != nil {
					slog.Error("watch ingest failed", "file", event.Name, "error", err)
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if err := w.removeByFilename(ctx, filepath.Base(event.Name)); err != nil {
					slog.Error("watch remove failed", "file", event.Name, "error", err)
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)

		case <-ctx.Done():
			slog.Info("watcher shutting down")
			return nil
		}
	}
}

// syncExisting ingests every supported file in the directory that is not
// already indexed under the same filename.
func (w *Watcher) syncExisting(ctx context.Context) error {
	docs, err := w.ingest.List(ctx)
	if err != nil {
		return err
	}
	indexed := make(map[string]bool, len(docs))
	for _, d := range docs {
		indexed[d.Filename] = true
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isSupported(entry.Name()) || indexed[entry.Name()] {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read watch file", "file", path, "error", err)
			continue
		}
		doc, err := w.ingest.Ingest(ctx, path, data)
		if err != nil {
			slog.Error("initial ingest failed", "file", path, "error", err)
			continue
		}
		w.recordIngest(doc.ID, path, doc.PassageCount)
	}
	return nil
}

// recordIngest writes an audit entry for a watch-triggered ingest.
func (w *Watcher) recordIngest(docID, path string, passages int) {
	if w.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"file":     path,
		"passages": passages,
	})
	go func() {
		if err := w.audit.WriteAudit(domain.AuditActionWatchIngest, "document", docID, string(details), "", ""); err != nil {
			slog.Error("failed to write audit log", "error", err)
		}
	}()
}

// reindex replaces any documents carrying the file's name, then ingests it.
func (w *Watcher) reindex(ctx context.Context, path string) error {
	if err := w.removeByFilename(ctx, filepath.Base(path)); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := w.ingest.Ingest(ctx, path, data)
	if err != nil {
		return err
	}
	w.recordIngest(doc.ID, path, doc.PassageCount)
	return nil
}

// removeByFilename deletes every indexed document with the given filename.
func (w *Watcher) removeByFilename(ctx context.Context, filename string) error {
	docs, err := w.ingest.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Filename != filename {
			continue
		}
		if err := w.ingest.Delete(ctx, d.ID); err != nil {
			return err
		}
		slog.Info("removed document for deleted file", "id", d.ID, "filename", filename)
	}
	return nil
}

func isSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}
