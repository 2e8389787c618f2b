package models

import "time"

// ProjectExt is the file extension of persisted projects.
const ProjectExt = ".dou"

// ProjectMetadata is a lightweight representation returned by list operations.
type ProjectMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
