package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/checksum"
)

func projectsDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestWriteReadStat(t *testing.T) {
	s := projectsDir(t)
	content := []byte(`{"version":"1.0","nodes":{},"connections":[]}`)
	require.NoError(t, s.Write("plans/q3.dou", content))

	got, err := s.Read("plans/q3.dou")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	meta, err := s.Stat("plans/q3.dou")
	require.NoError(t, err)
	assert.Equal(t, "plans/q3.dou", meta.Path)
	assert.Equal(t, checksum.Sum(content), meta.Checksum)
	assert.Equal(t, int64(len(content)), meta.Size)
}

func TestMissingFileIsNotFound(t *testing.T) {
	s := projectsDir(t)
	_, err := s.Read("nope.dou")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.Stat("nope.dou")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.Delete("nope.dou"), apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := projectsDir(t)
	_ = s.Write("del.dou", []byte("{}"))
	require.NoError(t, s.Delete("del.dou"))
	_, err := s.Read("del.dou")
	assert.Error(t, err)
}

func TestMove(t *testing.T) {
	s := projectsDir(t)
	_ = s.Write("old.dou", []byte("data"))
	require.NoError(t, s.Move("old.dou", "archive/new.dou"))

	got, err := s.Read("archive/new.dou")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
	_, err = s.Read("old.dou")
	assert.Error(t, err, "old path should not exist")

	_ = s.Write("other.dou", []byte("x"))
	assert.ErrorIs(t, s.Move("other.dou", "archive/new.dou"), apperr.ErrAlreadyExists)
}

func TestListOnlyProjects(t *testing.T) {
	s := projectsDir(t)
	_ = s.Write("a.dou", []byte("a"))
	_ = s.Write("sub/b.dou", []byte("b"))
	_ = s.Write("notes.md", []byte("not a project"))
	_ = s.Write(".hidden/c.dou", []byte("c"))
	_ = os.WriteFile(filepath.Join(s.Root(), ".dou-tmp-123"), []byte("partial"), 0o644)

	items, err := s.List("")
	require.NoError(t, err)
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	assert.ElementsMatch(t, []string{"a.dou", "sub/b.dou"}, paths)
}

func TestTraversalBlocked(t *testing.T) {
	s := projectsDir(t)
	for _, p := range []string{"../../etc/passwd", "../outside.dou", "/etc/shadow"} {
		_, err := s.Read(p)
		assert.Error(t, err, "read %q", p)
		assert.Error(t, s.Write(p, []byte("x")), "write %q", p)
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := projectsDir(t)
	_ = s.Write("atomic.dou", []byte("original"))
	require.NoError(t, s.Write("atomic.dou", []byte("updated")))

	got, _ := s.Read("atomic.dou")
	assert.Equal(t, "updated", string(got))
	matches, _ := filepath.Glob(filepath.Join(s.Root(), tempPattern))
	assert.Empty(t, matches, "leftover temp files")
}

func TestNewFSRejectsBadRoot(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err, "non-existent dir")

	f, err := os.CreateTemp(t.TempDir(), "file-*")
	require.NoError(t, err)
	_ = f.Close()
	_, err = NewFS(f.Name())
	assert.Error(t, err, "root is a file")
}

func TestIsProjectFile(t *testing.T) {
	cases := map[string]bool{
		"a.dou":         true,
		"a.md":          false,
		".dou-tmp-1":    false,
		".hidden.dou":   false,
		"archive.dou.x": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsProjectFile(name), "IsProjectFile(%q)", name)
	}
}
