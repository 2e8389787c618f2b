// Package storage keeps project documents on disk.
package storage

import "github.com/starford/dou/internal/models"

// Provider reads and writes project files. Paths are relative to the
// projects root and use forward or OS separators interchangeably.
type Provider interface {
	// List returns metadata for every project file under dir.
	List(dir string) ([]models.ProjectMetadata, error)
	// Stat returns metadata for one project file.
	Stat(path string) (models.ProjectMetadata, error)
	Read(path string) ([]byte, error)
	// Write replaces path atomically.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
}
