//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			project UNINDEXED,
			node_id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, project, nodeID, title, body string) error {
	_, err := tx.Exec(`INSERT INTO nodes_fts (project, node_id, title, body) VALUES (?, ?, ?, ?)`,
		project, nodeID, title, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, project string) {
	_, _ = tx.Exec(`DELETE FROM nodes_fts WHERE project = ?`, project)
}

// Search runs an FTS5 match over node titles and bodies, best match first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT project,
		       node_id,
		       title,
		       snippet(nodes_fts, 3, '<b>', '</b>', '...', 32)
		FROM nodes_fts
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Project, &r.NodeID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
