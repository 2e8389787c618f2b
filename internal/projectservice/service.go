// Package projectservice coordinates project files, the search index and the
// open canvas sessions.
package projectservice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/canvas"
	"github.com/starford/dou/internal/checksum"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/index"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/parser"
	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/session"
	"github.com/starford/dou/internal/storage"
)

// ProjectDetail is the full representation of a project file.
type ProjectDetail struct {
	Path      string           `json:"path"`
	Checksum  string           `json:"checksum"`
	Document  project.Document `json:"document"`
	Dropped   int              `json:"dropped_connections"`
	Open      bool             `json:"open"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProjectListItem is a lightweight item in a list response.
type ProjectListItem struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Version   string    `json:"version"`
	NodeCount int       `json:"node_count"`
	PathCount int       `json:"path_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PathNode is one node of a PathView.
type PathNode struct {
	ID          models.NodeID `json:"id"`
	Title       string        `json:"title"`
	OrderNumber int           `json:"order_number"`
	Color       models.Color  `json:"color"`
}

// PathView is one traversal path with its prompt context text.
type PathView struct {
	Label string     `json:"label"`
	Nodes []PathNode `json:"nodes"`
	Text  string     `json:"text"`
}

// PathsResult lists a project's paths.
type PathsResult struct {
	Project   string          `json:"project"`
	Paths     []PathView      `json:"paths"`
	Active    *PathView       `json:"active,omitempty"`
	Unreached []models.NodeID `json:"unreached"`
}

// NodePatch is an external edit of one node. Nil fields are left alone.
type NodePatch struct {
	Text  *string
	Color *string
}

// PathAll and PathActive select prompt context in Prompt.
const (
	PathAll    = "all"
	PathActive = "active"
)

// Service coordinates storage, index and sessions.
type Service struct {
	store    storage.Provider
	db       index.ProjectIndex
	sessions *session.Manager
}

// NewService creates a new project service.
func NewService(store storage.Provider, db index.ProjectIndex, sessions *session.Manager) *Service {
	return &Service{store: store, db: db, sessions: sessions}
}

// ListProjects returns a page of indexed projects.
func (s *Service) ListProjects(_ context.Context, limit, offset int) ([]ProjectListItem, int, error) {
	rows, total, err := s.db.ListProjects(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ProjectListItem, len(rows))
	for i, r := range rows {
		items[i] = ProjectListItem{
			Path:      r.Path,
			Checksum:  r.Checksum,
			Version:   r.Version,
			NodeCount: r.NodeCount,
			PathCount: r.PathCount,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// GetProject reads and normalizes a project file.
func (s *Service) GetProject(_ context.Context, path string) (*ProjectDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateProject writes a new project file and indexes it. Empty content
// creates an empty project.
func (s *Service) CreateProject(_ context.Context, path string, content []byte) (*ProjectDetail, error) {
	if !storage.IsProjectFile(baseName(path)) {
		return nil, fmt.Errorf("projectservice: %s: not a %s file: %w", path, models.ProjectExt, apperr.ErrLoadParse)
	}
	if _, err := s.store.Stat(path); err == nil {
		return nil, fmt.Errorf("projectservice: %s: %w", path, apperr.ErrAlreadyExists)
	}
	if len(content) == 0 {
		empty, err := project.Marshal(graph.New())
		if err != nil {
			return nil, err
		}
		content = empty
	}
	if _, err := project.Unmarshal(content); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// UpdateProject replaces a project file with optimistic concurrency: a
// non-empty ifMatch must equal the current checksum. An open session is
// reloaded from the new content.
func (s *Service) UpdateProject(ctx context.Context, path string, content []byte, ifMatch string) (*ProjectDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, fmt.Errorf("projectservice: %s: %w", path, apperr.ErrConflict)
	}
	if _, err := project.Unmarshal(content); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	if sess, ok := s.sessions.Get(path); ok {
		if _, err := sess.Load(ctx, content); err != nil {
			return nil, err
		}
	}
	return s.buildDetail(path, content)
}

// DeleteProject closes any session and removes the file and its index rows.
func (s *Service) DeleteProject(_ context.Context, path string) error {
	s.sessions.Close(path)
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteProject(path)
}

// Release closes the project's session without saving it.
func (s *Service) Release(path string) {
	s.sessions.Close(path)
}

// SaveProject writes the open session back to its file and re-indexes it.
func (s *Service) SaveProject(ctx context.Context, path string) (string, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return "", err
	}
	sum, err := sess.Save(ctx)
	if err != nil {
		return "", err
	}
	data, err := s.store.Read(path)
	if err != nil {
		return "", err
	}
	if err := s.IndexFile(path, data); err != nil {
		return "", err
	}
	return sum, nil
}

// Input feeds raw input events to the project's canvas.
func (s *Service) Input(ctx context.Context, path string, events []canvas.Event) (canvas.Snapshot, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	return sess.Input(ctx, events)
}

// Canvas returns the project's canvas state.
func (s *Service) Canvas(ctx context.Context, path string) (canvas.Snapshot, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	return sess.Snapshot(ctx)
}

// Paths lists every traversal path of the project, the path from the active
// node and the nodes no root reaches.
func (s *Service) Paths(ctx context.Context, path string) (*PathsResult, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	res := &PathsResult{Project: path, Paths: []PathView{}, Unreached: []models.NodeID{}}
	err = sess.Do(ctx, func(c *canvas.Controller) error {
		all := c.Store().AllPaths()
		for i, p := range all {
			res.Paths = append(res.Paths, view(p, i+1))
		}
		if active := c.PathFromActive(); len(active) > 0 {
			v := view(active, 0)
			res.Active = &v
		}
		for _, n := range c.Store().Unreached(all) {
			res.Unreached = append(res.Unreached, n.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Prompt builds the chat prompt for question from the selected context:
// PathAll, PathActive or a 1-based path number.
func (s *Service) Prompt(ctx context.Context, path, which, question string) (string, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return "", err
	}
	all, active, err := sess.Paths(ctx)
	if err != nil {
		return "", err
	}
	var text string
	switch which {
	case "", PathAll:
		text = project.PathsText(all)
	case PathActive:
		if len(active) == 0 {
			return "", fmt.Errorf("projectservice: no active node: %w", apperr.ErrNotFound)
		}
		text = project.PathText(active)
	default:
		i, err := strconv.Atoi(which)
		if err != nil || i < 1 || i > len(all) {
			return "", fmt.Errorf("projectservice: path %q: %w", which, apperr.ErrNotFound)
		}
		text = project.PathText(all[i-1])
	}
	return project.Prompt(text, question), nil
}

// Markdown exports the project's paths as Markdown.
func (s *Service) Markdown(ctx context.Context, path string) (string, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return "", err
	}
	all, _, err := sess.Paths(ctx)
	if err != nil {
		return "", err
	}
	return project.Markdown(all), nil
}

// ImportText creates nodes from external text at the viewport centre. With
// split set, each "# heading" section becomes its own node and the nodes are
// chained in document order. Without an explicit title the frontmatter title
// or first heading is used, then ImportedTitle. A frontmatter color applies
// to every created node.
func (s *Service) ImportText(ctx context.Context, path, title, text string, split bool) ([]*models.Node, error) {
	parsed, err := parser.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("projectservice: import: %w: %v", apperr.ErrLoadParse, err)
	}
	type part struct{ title, text string }
	if title == "" {
		title = parsed.Title
	}
	parts := []part{{title: title, text: parsed.Body}}
	if split {
		if sections := parser.Sections(parsed.Body); len(sections) > 0 {
			parts = parts[:0]
			for _, sec := range sections {
				parts = append(parts, part{title: sec.Title, text: sec.Text})
			}
		}
	}

	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var created []*models.Node
	err = sess.Do(ctx, func(c *canvas.Controller) error {
		var prev *models.Node
		for _, p := range parts {
			n := c.ImportText(p.title, p.text)
			if prev != nil {
				c.Store().Move(n.ID, prev.Pos.Add(models.Pt(prev.Width+importGap, 0)))
				if _, err := c.Connect(prev.ID, n.ID, models.EdgeRight); err != nil {
					return err
				}
			}
			if parsed.Color != "" {
				_ = c.SetNodeColor(n.ID, models.Color(parsed.Color))
			}
			prev = n
			created = append(created, n.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// importGap separates chained imported nodes horizontally.
const importGap = 50.0

// UpdateNode applies an external text or colour edit to one node.
func (s *Service) UpdateNode(ctx context.Context, path string, id models.NodeID, patch NodePatch) (*models.Node, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var out *models.Node
	err = sess.Do(ctx, func(c *canvas.Controller) error {
		if patch.Text != nil {
			if err := c.SetNodeText(id, *patch.Text); err != nil {
				return err
			}
		}
		if patch.Color != nil {
			if err := c.SetNodeColor(id, models.Color(*patch.Color)); err != nil {
				return err
			}
		}
		n, ok := c.Store().Node(id)
		if !ok {
			return fmt.Errorf("projectservice: node %s: %w", id, apperr.ErrNotFound)
		}
		out = n.Clone()
		return nil
	})
	return out, err
}

// Connect links two nodes of an open project.
func (s *Service) Connect(ctx context.Context, path string, start, end models.NodeID, edge models.EdgeType) (models.Connection, error) {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return models.Connection{}, err
	}
	if edge == "" {
		edge = models.EdgeRight
	}
	var out models.Connection
	err = sess.Do(ctx, func(c *canvas.Controller) error {
		conn, err := c.Connect(start, end, edge)
		if err != nil {
			return err
		}
		out = *conn
		return nil
	})
	return out, err
}

// Disconnect removes the connection start->end.
func (s *Service) Disconnect(ctx context.Context, path string, start, end models.NodeID) error {
	sess, err := s.sessions.Open(ctx, path)
	if err != nil {
		return err
	}
	return sess.Do(ctx, func(c *canvas.Controller) error {
		return c.Disconnect(start, end)
	})
}

// Search delegates node search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data, time.Now().UTC())
}

func (s *Service) buildDetail(path string, data []byte) (*ProjectDetail, error) {
	loaded, err := project.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	_, open := s.sessions.Get(path)
	d := &ProjectDetail{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Document:  project.Encode(loaded.Store),
		Dropped:   len(loaded.Dropped),
		Open:      open,
		UpdatedAt: time.Now().UTC(),
	}
	if meta, err := s.store.Stat(path); err == nil {
		d.UpdatedAt = meta.UpdatedAt
	}
	return d, nil
}

func baseName(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

// view describes path p; i is its 1-based position, or 0 for the active path.
func view(p graph.Path, i int) PathView {
	v := PathView{Nodes: make([]PathNode, 0, len(p)), Text: project.PathText(p)}
	if i > 0 {
		v.Label = project.PathLabel(p, i)
	} else if len(p) > 0 {
		v.Label = p[0].Title
	}
	for _, n := range p {
		v.Nodes = append(v.Nodes, PathNode{ID: n.ID, Title: n.Title, OrderNumber: n.Order(), Color: n.Color})
	}
	return v
}
