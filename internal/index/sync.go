package index

import (
	"log/slog"
	"time"

	"github.com/starford/dou/internal/checksum"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/storage"
)

// Sync brings the index in line with the projects directory: new or changed
// files are re-indexed and rows for vanished files are removed. Files that
// fail to parse are logged and skipped.
func Sync(db ProjectIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}
	known, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteProject(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
	}
	return nil
}

// IndexFile parses a project document and upserts it.
func IndexFile(db ProjectIndex, path string, data []byte, updated time.Time) error {
	loaded, err := project.Unmarshal(data)
	if err != nil {
		return err
	}
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	nodes, edges := Rows(loaded.Store)
	return db.UpsertProject(ProjectRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Version:   loaded.Version,
		PathCount: len(loaded.Store.AllPaths()),
		UpdatedAt: updated,
	}, nodes, edges)
}

// Rows flattens a store into index rows.
func Rows(s *graph.Store) ([]NodeRow, []EdgeRow) {
	nodes := make([]NodeRow, 0, s.Len())
	for _, n := range s.Nodes() {
		nodes = append(nodes, NodeRow{
			NodeID:      string(n.ID),
			Title:       n.Title,
			Text:        n.Text,
			Color:       string(n.Color),
			OrderNumber: n.Clone().OrderNumber,
		})
	}
	conns := s.Connections()
	edges := make([]EdgeRow, 0, len(conns))
	for _, c := range conns {
		edges = append(edges, EdgeRow{Start: string(c.Start), End: string(c.End), EdgeType: string(c.EdgeType)})
	}
	return nodes, edges
}
