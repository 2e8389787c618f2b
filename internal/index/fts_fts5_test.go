//go:build sqlite_fts5

package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM nodes_fts`).Scan(&count), "nodes_fts table missing")
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	err := db.UpsertProject(ProjectRow{Path: "fts.dou", Checksum: "f1", UpdatedAt: time.Now()},
		[]NodeRow{{NodeID: "n1", Title: "FTS Node", Text: "Sticky notes with powerful full-text search."}}, nil)
	require.NoError(t, err)

	results, err := db.Search("powerful", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fts.dou", results[0].Project)
	assert.Equal(t, "n1", results[0].NodeID)
	assert.NotEmpty(t, results[0].Snippet)
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertProject(ProjectRow{Path: "gone.dou", Checksum: "g", UpdatedAt: time.Now()},
		[]NodeRow{{NodeID: "n", Title: "Gone", Text: "vanishing content"}}, nil)
	_ = db.DeleteProject("gone.dou")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		assert.NotEqual(t, "gone.dou", r.Project, "deleted project still in FTS index")
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertProject(ProjectRow{Path: "evo.dou", Checksum: "1", UpdatedAt: now},
		[]NodeRow{{NodeID: "n", Title: "Old", Text: "original text"}}, nil)
	_ = db.UpsertProject(ProjectRow{Path: "evo.dou", Checksum: "2", UpdatedAt: now},
		[]NodeRow{{NodeID: "n", Title: "New", Text: "replacement text"}}, nil)

	results, _ := db.Search("original", 10)
	assert.Empty(t, results, "old FTS content should be gone")
	results, _ = db.Search("replacement", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "New", results[0].Title)
}
