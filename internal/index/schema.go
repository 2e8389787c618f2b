// Package index keeps a SQLite index of project files so that projects and
// node text can be listed and searched without opening every document.
// Full-text search uses FTS5 when built with the sqlite_fts5 tag.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	version    TEXT NOT NULL DEFAULT '',
	node_count INTEGER NOT NULL DEFAULT 0,
	path_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
	project      TEXT NOT NULL REFERENCES projects(path) ON DELETE CASCADE,
	node_id      TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	color        TEXT NOT NULL DEFAULT '',
	order_number INTEGER,
	PRIMARY KEY (project, node_id)
);

CREATE TABLE IF NOT EXISTS connections (
	project    TEXT NOT NULL REFERENCES projects(path) ON DELETE CASCADE,
	start_node TEXT NOT NULL,
	end_node   TEXT NOT NULL,
	edge_type  TEXT NOT NULL DEFAULT 'right',
	UNIQUE(project, start_node, end_node)
);

CREATE INDEX IF NOT EXISTS idx_connections_end ON connections(project, end_node);
`

// DB is the SQLite-backed ProjectIndex.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at dsn and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
