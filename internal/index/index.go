package index

// ProjectIndex is the query surface over indexed project files. Consumers
// depend on it rather than on *DB.
type ProjectIndex interface {
	UpsertProject(p ProjectRow, nodes []NodeRow, edges []EdgeRow) error
	DeleteProject(path string) error
	GetChecksum(path string) (string, error)
	GetProject(path string) (*ProjectRow, error)
	ListProjects(limit, offset int) ([]ProjectRow, int, error)
	ProjectNodes(path string) ([]NodeRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ ProjectIndex = (*DB)(nil)
