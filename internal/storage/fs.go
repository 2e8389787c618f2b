package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/checksum"
	"github.com/starford/dou/internal/models"
)

const tempPattern = ".dou-tmp-*"

// FS is a Provider over a local directory.
type FS struct {
	root string
}

// NewFS roots a provider at dir, which must exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute projects directory.
func (f *FS) Root() string { return f.root }

// resolve maps rel into the root, refusing absolute paths and traversal.
func (f *FS) resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %q", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %q escapes projects root", rel)
	}
	return abs, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %s: %w", path, apperr.ErrNotFound)
	}
	return err
}

func (f *FS) metadata(abs string, info fs.FileInfo) (models.ProjectMetadata, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.ProjectMetadata{}, err
	}
	rel, _ := filepath.Rel(f.root, abs)
	return models.ProjectMetadata{
		Path:      filepath.ToSlash(rel),
		Checksum:  checksum.Sum(data),
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// List walks dir and describes every .dou file, skipping temp files.
func (f *FS) List(dir string) ([]models.ProjectMetadata, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.ProjectMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsProjectFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		meta, err := f.metadata(p, info)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", notFound(dir, err))
	}
	return out, nil
}

// Stat describes one project file.
func (f *FS) Stat(path string) (models.ProjectMetadata, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return models.ProjectMetadata{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.ProjectMetadata{}, notFound(path, err)
	}
	meta, err := f.metadata(abs, info)
	if err != nil {
		return models.ProjectMetadata{}, notFound(path, err)
	}
	return meta, nil
}

func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, notFound(path, err)
	}
	return data, nil
}

// Write stages content in a temp file beside path, fsyncs it and renames it
// into place. A failed write leaves the previous file untouched.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(name, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	committed = true
	return nil
}

func (f *FS) Delete(path string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return notFound(path, err)
	}
	return nil
}

// Move renames a project, creating the destination directory.
func (f *FS) Move(oldPath, newPath string) error {
	from, err := f.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := f.resolve(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("storage: %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return notFound(oldPath, err)
	}
	return nil
}

// IsProjectFile reports whether name is a project document.
func IsProjectFile(name string) bool {
	return strings.HasSuffix(name, models.ProjectExt) && !strings.HasPrefix(name, ".")
}
