package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dou/internal/apperr"
)

// ProjectRow is one indexed project file.
type ProjectRow struct {
	Path      string
	Checksum  string
	Version   string
	NodeCount int
	PathCount int
	UpdatedAt time.Time
}

// NodeRow is one indexed node.
type NodeRow struct {
	NodeID      string
	Title       string
	Text        string
	Color       string
	OrderNumber *int
}

// EdgeRow is one indexed connection.
type EdgeRow struct {
	Start    string
	End      string
	EdgeType string
}

// SearchResult is one node matching a search.
type SearchResult struct {
	Project string
	NodeID  string
	Title   string
	Snippet string
}

// UpsertProject replaces a project row with its nodes, connections and
// full-text entries in one transaction.
func (db *DB) UpsertProject(p ProjectRow, nodes []NodeRow, edges []EdgeRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO projects (path, checksum, version, node_count, path_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			version    = excluded.version,
			node_count = excluded.node_count,
			path_count = excluded.path_count,
			updated_at = excluded.updated_at
	`, p.Path, p.Checksum, p.Version, len(nodes), p.PathCount, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert project: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM nodes WHERE project = ?`, p.Path); err != nil {
		return fmt.Errorf("index: clear nodes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM connections WHERE project = ?`, p.Path); err != nil {
		return fmt.Errorf("index: clear connections: %w", err)
	}
	ftsDelete(tx, p.Path)

	if len(nodes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO nodes (project, node_id, title, body, color, order_number) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare node insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range nodes {
			if _, err := stmt.Exec(p.Path, n.NodeID, n.Title, n.Text, n.Color, n.OrderNumber); err != nil {
				return fmt.Errorf("index: insert node: %w", err)
			}
			if err := ftsUpsert(tx, p.Path, n.NodeID, n.Title, n.Text); err != nil {
				return err
			}
		}
	}

	if len(edges) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO connections (project, start_node, end_node, edge_type) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare connection insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range edges {
			if _, err := stmt.Exec(p.Path, e.Start, e.End, e.EdgeType); err != nil {
				return fmt.Errorf("index: insert connection: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteProject removes a project and everything indexed under it.
func (db *DB) DeleteProject(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM connections WHERE project = ?`, path)
	_, _ = tx.Exec(`DELETE FROM nodes WHERE project = ?`, path)
	_, _ = tx.Exec(`DELETE FROM projects WHERE path = ?`, path)
	return tx.Commit()
}

// GetChecksum returns the stored checksum, or "" when the project is not
// indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM projects WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetProject returns one project row.
func (db *DB) GetProject(path string) (*ProjectRow, error) {
	var p ProjectRow
	err := db.conn.QueryRow(`
		SELECT path, checksum, version, node_count, path_count, updated_at
		FROM projects WHERE path = ?
	`, path).Scan(&p.Path, &p.Checksum, &p.Version, &p.NodeCount, &p.PathCount, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: project %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns a page of projects ordered by most recent update,
// together with the total count.
func (db *DB) ListProjects(limit, offset int) ([]ProjectRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count projects: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, checksum, version, node_count, path_count, updated_at
		FROM projects
		ORDER BY updated_at DESC, path
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		var p ProjectRow
		if err := rows.Scan(&p.Path, &p.Checksum, &p.Version, &p.NodeCount, &p.PathCount, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// ProjectNodes returns a project's nodes by order number, unnumbered last.
func (db *DB) ProjectNodes(path string) ([]NodeRow, error) {
	rows, err := db.conn.Query(`
		SELECT node_id, title, body, color, order_number
		FROM nodes WHERE project = ?
		ORDER BY order_number IS NULL, order_number, node_id
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: project nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var (
			n     NodeRow
			order sql.NullInt64
		)
		if err := rows.Scan(&n.NodeID, &n.Title, &n.Text, &n.Color, &order); err != nil {
			return nil, err
		}
		if order.Valid {
			v := int(order.Int64)
			n.OrderNumber = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AllChecksums maps every indexed project path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
