package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/parser"
)

// ImportedTitle names nodes created from imported text without a title.
const ImportedTitle = "Imported Text"

func (c *Controller) key(ctx context.Context, ev Event) error {
	is := func(names ...string) bool {
		for _, name := range names {
			if strings.EqualFold(ev.Key, name) {
				return true
			}
		}
		return false
	}

	if c.state == StateEditingText {
		if is(KeyEnter, KeyReturn, KeyEscape) {
			c.commitEdit()
		}
		return nil
	}

	switch {
	case is(KeyDelete, KeyBackspace):
		c.DeleteSelected()
	case is(KeyEnter, KeyReturn) && !ev.Command():
		if n, ok := c.Active(); ok && c.state == StateIdle {
			c.beginEdit(n)
		}
	case !ev.Command():
	case is(KeyPlus, KeyEqual):
		c.zoomStep(true)
	case is(KeyMinus):
		c.zoomStep(false)
	case is(KeyZero):
		c.ResetView()
	case is(KeyC):
		return c.Copy(ctx)
	case is(KeyX):
		return c.Cut(ctx)
	case is(KeyV):
		c.Paste(ctx, c.view.ToScene(c.pointer))
	}
	return nil
}

func (c *Controller) zoomStep(in bool) {
	var ok bool
	if in {
		ok = c.view.ZoomIn(c.center())
	} else {
		ok = c.view.ZoomOut(c.center())
	}
	if ok {
		c.listener.Repaint()
	}
}

// ResetView restores 1.0x zoom and the identity transform.
func (c *Controller) ResetView() {
	c.view.Reset()
	c.listener.Repaint()
}

// AddNode creates a node at the canvas point at with the next order number.
func (c *Controller) AddNode(title, text string, at models.Point) *models.Node {
	n := c.store.AddNode(title, text)
	c.store.Move(n.ID, at)
	c.touch()
	return n
}

// ImportText creates a node from external text at the viewport centre,
// selects it and focuses it. An empty title becomes ImportedTitle.
func (c *Controller) ImportText(title, text string) *models.Node {
	if title == "" {
		title = ImportedTitle
	}
	n := c.AddNode(title, text, c.view.ToScene(c.center()))
	c.selected = []models.NodeID{n.ID}
	c.focus(n)
	return n
}

// SetNodeText writes text from an external editor and derives the title
// from its first line. Empty text keeps the current title.
func (c *Controller) SetNodeText(id models.NodeID, text string) error {
	n, ok := c.store.Node(id)
	if !ok {
		return fmt.Errorf("canvas: node %s: %w", id, apperr.ErrNotFound)
	}
	n.Text = text
	if title := parser.FirstLineTitle(text); title != "" {
		n.Title = title
	}
	c.touch()
	return nil
}

// SetNodeColor recolours one node. Unknown colours are ignored.
func (c *Controller) SetNodeColor(id models.NodeID, color models.Color) error {
	n, ok := c.store.Node(id)
	if !ok {
		return fmt.Errorf("canvas: node %s: %w", id, apperr.ErrNotFound)
	}
	if n.SetColor(color) {
		c.touch()
	}
	return nil
}

// SetColor recolours every selected node and returns how many changed.
func (c *Controller) SetColor(color models.Color) int {
	changed := 0
	for _, id := range c.selected {
		if n, ok := c.store.Node(id); ok && n.SetColor(color) {
			changed++
		}
	}
	if changed > 0 {
		c.touch()
	}
	return changed
}

// Select replaces the selection with the known ids among ids and focuses the
// last one.
func (c *Controller) Select(ids ...models.NodeID) {
	c.selected = nil
	var last *models.Node
	for _, id := range ids {
		if n, ok := c.store.Node(id); ok && !c.isSelected(id) {
			c.selected = append(c.selected, id)
			last = n
		}
	}
	if last != nil {
		c.focus(last)
	}
	c.listener.Repaint()
}

// Connect links output to input outside of a gesture. An existing pair is
// returned as-is; a busy socket yields apperr.ErrConflict.
func (c *Controller) Connect(output, input models.NodeID, edge models.EdgeType) (*models.Connection, error) {
	if existing, ok := c.store.Find(output, input); ok {
		return existing, nil
	}
	start, ok := c.store.Node(output)
	if !ok {
		return nil, fmt.Errorf("canvas: node %s: %w", output, apperr.ErrNotFound)
	}
	end, ok := c.store.Node(input)
	if !ok {
		return nil, fmt.Errorf("canvas: node %s: %w", input, apperr.ErrNotFound)
	}
	if output == input {
		return nil, fmt.Errorf("canvas: self connection: %w", apperr.ErrConflict)
	}
	if start.OutputConnected || end.InputConnected {
		return nil, fmt.Errorf("canvas: socket in use: %w", apperr.ErrConflict)
	}
	conn, _ := c.store.ConnectEdge(output, input, edge)
	c.touch()
	return conn, nil
}

// Disconnect removes the connection for the ordered pair.
func (c *Controller) Disconnect(output, input models.NodeID) error {
	conn, ok := c.store.Find(output, input)
	if !ok {
		return fmt.Errorf("canvas: connection %s->%s: %w", output, input, apperr.ErrNotFound)
	}
	c.store.Disconnect(conn)
	c.touch()
	return nil
}

// DeleteSelected removes the selected nodes and every connection touching
// them, then renumbers. It returns the number of nodes removed.
func (c *Controller) DeleteSelected() int {
	if len(c.selected) == 0 {
		return 0
	}
	removed := c.store.RemoveNodes(c.selected...)
	c.selected = nil
	if _, ok := c.store.Node(c.active); !ok {
		c.active = ""
	}
	if removed > 0 {
		c.touch()
	}
	return removed
}

// Copy writes the selected nodes to the clipboard. An empty selection leaves
// the clipboard untouched.
func (c *Controller) Copy(ctx context.Context) error {
	if len(c.selected) == 0 {
		return nil
	}
	descs := make([]NodeDescriptor, 0, len(c.selected))
	for _, id := range c.selected {
		if n, ok := c.store.Node(id); ok {
			descs = append(descs, Describe(n))
		}
	}
	data, err := EncodeNodes(descs)
	if err != nil {
		return fmt.Errorf("canvas: encode clipboard: %w", err)
	}
	if err := c.clip.Write(ctx, data); err != nil {
		return fmt.Errorf("canvas: copy: %w", err)
	}
	return nil
}

// Cut copies then deletes the selection. Nothing is deleted when the copy
// fails.
func (c *Controller) Cut(ctx context.Context) error {
	if err := c.Copy(ctx); err != nil {
		return err
	}
	c.DeleteSelected()
	return nil
}

// Paste recreates the clipboard nodes so that the minimum corner of the
// copied set lands on the canvas point at, and selects them. Absent or
// malformed clipboard content is ignored.
func (c *Controller) Paste(ctx context.Context, at models.Point) []models.NodeID {
	data, err := c.clip.Read(ctx)
	if err != nil {
		c.log.Warn("canvas: clipboard read failed", slog.String("error", err.Error()))
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	descs, err := DecodeNodes(data)
	if err != nil {
		c.log.Debug("canvas: paste ignored", slog.String("error", err.Error()))
		return nil
	}

	c.selected = nil
	if len(descs) == 0 {
		c.listener.Repaint()
		return nil
	}
	minCorner := models.Pt(math.Inf(1), math.Inf(1))
	for _, d := range descs {
		minCorner.X = math.Min(minCorner.X, d.Pos[0])
		minCorner.Y = math.Min(minCorner.Y, d.Pos[1])
	}

	ids := make([]models.NodeID, 0, len(descs))
	for _, d := range descs {
		n := c.store.AddNode(d.Title, d.Text)
		n.Resize(d.Width, d.Height)
		c.store.Move(n.ID, at.Add(d.Point().Sub(minCorner)))
		ids = append(ids, n.ID)
	}
	c.selected = ids
	c.touch()
	return ids
}

// Replace swaps in a freshly loaded document, drops every gesture and
// resets the view.
func (c *Controller) Replace(store *graph.Store) {
	if store == nil {
		store = graph.New()
	}
	c.store = store
	c.selected = nil
	c.active = ""
	c.editing = ""
	c.link = nil
	c.dragOrigin = nil
	c.resizing = ""
	c.pinchLast = 1
	c.state = StateIdle
	c.view.Reset()
	c.touch()
}

// PathFromActive returns the path starting at the active node.
func (c *Controller) PathFromActive() graph.Path {
	if n, ok := c.Active(); ok {
		return c.store.PathFrom(n.ID)
	}
	return nil
}

// Snapshot is a detached, serializable view of a canvas.
type Snapshot struct {
	State       string              `json:"state"`
	Zoom        float64             `json:"zoom"`
	Offset      models.Point        `json:"offset"`
	Nodes       []*models.Node      `json:"nodes"`
	Connections []models.Connection `json:"connections"`
	Selection   []models.NodeID     `json:"selection"`
	Active      models.NodeID       `json:"active,omitempty"`
	Editor      *models.Rect        `json:"editor,omitempty"`
	Preview     *models.Curve       `json:"preview,omitempty"`
	Revision    uint64              `json:"revision"`
}

// Snapshot copies the current canvas state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:     c.state.String(),
		Zoom:      c.view.Zoom(),
		Offset:    c.view.Offset(),
		Selection: c.Selection(),
		Revision:  c.revision,
	}
	if s.Selection == nil {
		s.Selection = []models.NodeID{}
	}
	if n, ok := c.Active(); ok {
		s.Active = n.ID
	}
	for _, n := range c.store.Nodes() {
		s.Nodes = append(s.Nodes, n.Clone())
	}
	for _, conn := range c.store.Connections() {
		s.Connections = append(s.Connections, *conn)
	}
	if r, ok := c.EditorRect(); ok {
		s.Editor = &r
	}
	if p, ok := c.Preview(); ok {
		s.Preview = &p
	}
	return s
}
