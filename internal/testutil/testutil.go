// Package testutil provides shared test helpers for project directories,
// project documents and index databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/index"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/storage"
)

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "dou-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestProjects creates a temporary projects directory with a storage.Provider.
func TestProjects(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Chain builds a graph of nodes connected in the order given. Each node's
// text is "about " followed by its title.
func Chain(titles ...string) *graph.Store {
	s := graph.New()
	var prev *models.Node
	for _, title := range titles {
		n := s.AddNode(title, "about "+title)
		if prev != nil {
			s.Connect(prev.ID, n.ID)
		}
		prev = n
	}
	return s
}

// Document renders Chain(titles...) as a project file.
func Document(t *testing.T, titles ...string) []byte {
	t.Helper()
	data, err := project.Marshal(Chain(titles...))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// WriteProject stores Document(titles...) at path.
func WriteProject(t *testing.T, store storage.Provider, path string, titles ...string) []byte {
	t.Helper()
	data := Document(t, titles...)
	if err := store.Write(path, data); err != nil {
		t.Fatal(err)
	}
	return data
}
