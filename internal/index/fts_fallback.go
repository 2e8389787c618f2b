//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without FTS5 the nodes table already holds title and body for LIKE search.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search matches node titles and bodies with LIKE.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT project, node_id, title, substr(body, 1, 200)
		FROM nodes
		WHERE title LIKE ? OR body LIKE ?
		ORDER BY project, order_number IS NULL, order_number
		LIMIT ?
	`, like, like, limit)
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
