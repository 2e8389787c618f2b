// Package canvas implements the interactive side of a node canvas: the
// viewport transform, the mouse/stylus input coalescer, the gesture state
// machine that edits a graph.Store and the clipboard interchange.
package canvas

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/models"
)

// State is the gesture mode of a canvas. Exactly one is active at a time.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDraggingNode
	StateResizingNode
	StateDraggingConnection
	StateEditingText
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePanning:
		return "panning"
	case StateDraggingNode:
		return "dragging_node"
	case StateResizingNode:
		return "resizing_node"
	case StateDraggingConnection:
		return "dragging_connection"
	case StateEditingText:
		return "editing_text"
	default:
		return "unknown"
	}
}

// DefaultPinchThreshold is the minimum incremental pinch change applied as a
// zoom step.
const DefaultPinchThreshold = 0.05

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for gesture diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithListener sets the focus/repaint listener.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// WithClipboard sets the clipboard backend. The default is process-local.
func WithClipboard(cb Clipboard) Option {
	return func(c *Controller) { c.clip = cb }
}

// WithZoom sets the zoom step and range.
func WithZoom(cfg ZoomConfig) Option {
	return func(c *Controller) { c.view = NewViewport(cfg) }
}

// WithPinchThreshold overrides DefaultPinchThreshold.
func WithPinchThreshold(v float64) Option {
	return func(c *Controller) { c.pinchThreshold = v }
}

// Controller drives a graph.Store from logical input events.
//
// Controller is not safe for concurrent use. All calls, including reads, must
// come from one goroutine.
type Controller struct {
	store          *graph.Store
	view           *Viewport
	clip           Clipboard
	listener       Listener
	log            *slog.Logger
	pinchThreshold float64

	state    State
	selected []models.NodeID
	active   models.NodeID
	editing  models.NodeID
	pointer  models.Point // last pointer position, screen
	size     models.Point // viewport size, screen

	panLast    models.Point
	dragAnchor models.Point
	dragOrigin map[models.NodeID]models.Point
	resizing   models.NodeID
	link       *linkDrag
	pinchLast  float64
	revision   uint64
}

// linkDrag is an in-flight connection gesture anchored at one socket.
type linkDrag struct {
	from    models.NodeID
	socket  models.Socket
	preview models.Curve
}

// NewController returns an idle controller over store. A nil store starts an
// empty document.
func NewController(store *graph.Store, opts ...Option) *Controller {
	if store == nil {
		store = graph.New()
	}
	c := &Controller{
		store:          store,
		view:           NewViewport(DefaultZoomConfig()),
		clip:           NewMemoryClipboard(),
		listener:       nopListener{},
		log:            slog.Default(),
		pinchThreshold: DefaultPinchThreshold,
		pinchLast:      1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store returns the document graph.
func (c *Controller) Store() *graph.Store { return c.store }

// Viewport returns the view transform.
func (c *Controller) Viewport() *Viewport { return c.view }

// State returns the current gesture mode.
func (c *Controller) State() State { return c.state }

// Selection returns the selected node ids in selection order.
func (c *Controller) Selection() []models.NodeID { return slices.Clone(c.selected) }

// Active returns the most recently focused node, if it still exists.
func (c *Controller) Active() (*models.Node, bool) {
	if c.active == "" {
		return nil, false
	}
	return c.store.Node(c.active)
}

// Revision increments on every graph mutation.
func (c *Controller) Revision() uint64 { return c.revision }

// Preview returns the live connection curve while a link is being dragged.
func (c *Controller) Preview() (models.Curve, bool) {
	if c.link == nil {
		return models.Curve{}, false
	}
	return c.link.preview, true
}

// EditorRect returns the screen rectangle the text overlay must cover while a
// node is being edited.
func (c *Controller) EditorRect() (models.Rect, bool) {
	if c.state != StateEditingText {
		return models.Rect{}, false
	}
	n, ok := c.store.Node(c.editing)
	if !ok {
		return models.Rect{}, false
	}
	return c.view.RectToScreen(n.Bounds()), true
}

// Handle applies one logical input event. The only error source is the
// clipboard backend on copy and cut.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventPointerDown:
		c.pointer = ev.Pos
		c.pointerDown(ev)
	case EventPointerMove:
		c.pointer = ev.Pos
		c.pointerMove(ev)
	case EventPointerUp:
		c.pointer = ev.Pos
		c.pointerUp(ev)
	case EventActivate:
		c.pointer = ev.Pos
		c.activate(ev)
	case EventKey:
		return c.key(ctx, ev)
	case EventWheel:
		c.pointer = ev.Pos
		c.wheel(ev)
	case EventPinch:
		c.pinch(ev)
	case EventPinchEnd:
		c.pinchLast = 1
	case EventText:
		c.editText(ev.Text)
	case EventBlur:
		c.commitEdit()
	case EventResize:
		c.size = ev.Size
	default:
		c.log.Debug("canvas: ignored event", slog.String("kind", string(ev.Kind)))
	}
	return nil
}

// hitPart names the part of a node under the pointer.
type hitPart int

const (
	partNone hitPart = iota
	partSocket
	partHandle
	partBody
)

type hit struct {
	node   *models.Node
	part   hitPart
	socket models.Socket
}

// hitTest finds the topmost node part under the canvas point p. Sockets win
// over the resize handle, which wins over the body; the handle only exists on
// selected nodes.
func (c *Controller) hitTest(p models.Point) hit {
	items := c.store.Items()
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		switch it.Kind {
		case models.ItemNode:
			n := it.Node
			if s := n.SocketAt(p); s != models.SocketNone {
				return hit{node: n, part: partSocket, socket: s}
			}
			if c.isSelected(n.ID) && n.HandleRect().Contains(p) {
				return hit{node: n, part: partHandle}
			}
			if n.Bounds().Contains(p) {
				return hit{node: n, part: partBody}
			}
		case models.ItemConnection:
			// connections are not hit targets
		}
	}
	return hit{}
}

func (c *Controller) pointerDown(ev Event) {
	scene := c.view.ToScene(ev.Pos)
	if c.state == StateEditingText {
		if h := c.hitTest(scene); h.node != nil && h.node.ID == c.editing {
			return
		}
		c.commitEdit()
	}
	if c.state != StateIdle {
		return
	}

	if ev.Button == ButtonSecondary {
		c.setState(StatePanning)
		c.panLast = ev.Pos
		return
	}

	h := c.hitTest(scene)
	switch h.part {
	case partSocket:
		c.beginLink(h.node, h.socket, scene)
	case partHandle:
		c.resizing = h.node.ID
		c.setState(StateResizingNode)
	case partBody:
		c.beginDrag(h.node, ev.Shift, scene)
	default:
		if !ev.Shift && len(c.selected) > 0 {
			c.selected = nil
			c.listener.Repaint()
		}
	}
}

func (c *Controller) pointerMove(ev Event) {
	switch c.state {
	case StatePanning:
		c.view.Pan(ev.Pos.Sub(c.panLast))
		c.panLast = ev.Pos
		c.listener.Repaint()
	case StateDraggingNode:
		delta := c.view.ToScene(ev.Pos).Sub(c.dragAnchor)
		for id, origin := range c.dragOrigin {
			c.store.Move(id, origin.Add(delta))
		}
		c.touch()
	case StateResizingNode:
		n, ok := c.store.Node(c.resizing)
		if !ok {
			c.setState(StateIdle)
			return
		}
		off := c.view.ToScene(ev.Pos).Sub(n.Pos)
		n.Resize(off.X, off.Y)
		c.store.Reroute(n.ID)
		c.touch()
	case StateDraggingConnection:
		c.link.preview = c.previewCurve(c.view.ToScene(ev.Pos))
		c.listener.Repaint()
	}
}

func (c *Controller) pointerUp(ev Event) {
	switch c.state {
	case StatePanning:
		c.setState(StateIdle)
	case StateDraggingNode:
		c.dragOrigin = nil
		c.setState(StateIdle)
	case StateResizingNode:
		c.resizing = ""
		c.setState(StateIdle)
	case StateDraggingConnection:
		c.finishLink(c.view.ToScene(ev.Pos))
		c.link = nil
		c.setState(StateIdle)
		c.listener.Repaint()
	}
}

func (c *Controller) activate(ev Event) {
	scene := c.view.ToScene(ev.Pos)
	if c.state == StateEditingText {
		if h := c.hitTest(scene); h.node != nil && h.node.ID == c.editing {
			return
		}
		c.commitEdit()
	}
	if c.state != StateIdle {
		return
	}

	h := c.hitTest(scene)
	switch h.part {
	case partNone:
		n := c.AddNode(models.DefaultTitle, models.PlaceholderText, scene)
		c.selected = []models.NodeID{n.ID}
		c.focus(n)
	case partBody, partHandle, partSocket:
		c.beginEdit(h.node)
	}
}

// beginLink starts a connection drag from socket s of n. Pressing a socket
// that is already connected detaches that connection and picks up its loose
// end: the drag continues from the other endpoint.
func (c *Controller) beginLink(n *models.Node, s models.Socket, scene models.Point) {
	from, socket := n.ID, s
	if n.SocketConnected(s) {
		var (
			conn *models.Connection
			ok   bool
		)
		if s == models.SocketInput {
			conn, ok = c.store.Incoming(n.ID)
		} else {
			conn, ok = c.store.Outgoing(n.ID)
		}
		if ok {
			if s == models.SocketInput {
				from, socket = conn.Start, models.SocketOutput
			} else {
				from, socket = conn.End, models.SocketInput
			}
			c.store.Disconnect(conn)
			c.touch()
		}
	}
	c.link = &linkDrag{from: from, socket: socket}
	c.link.preview = c.previewCurve(scene)
	c.setState(StateDraggingConnection)
	c.log.Debug("canvas: link started",
		slog.String("node", string(from)),
		slog.String("socket", socket.String()))
}

// finishLink connects the drag origin to a free opposite socket of another
// node under p. Anything else cancels the gesture.
func (c *Controller) finishLink(p models.Point) {
	want := c.link.socket.Opposite()
	items := c.store.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind != models.ItemNode {
			continue
		}
		n := items[i].Node
		if n.ID == c.link.from || n.SocketAt(p) != want {
			continue
		}
		if n.SocketConnected(want) {
			c.log.Debug("canvas: link target busy", slog.String("node", string(n.ID)))
			return
		}
		output, input := c.link.from, n.ID
		if c.link.socket == models.SocketInput {
			output, input = n.ID, c.link.from
		}
		if _, created := c.store.Connect(output, input); created {
			c.touch()
		}
		return
	}
}

func (c *Controller) previewCurve(p models.Point) models.Curve {
	n, ok := c.store.Node(c.link.from)
	if !ok {
		return models.HorizontalCurve(p, p)
	}
	return models.HorizontalCurve(n.SocketPos(c.link.socket), p)
}

func (c *Controller) beginDrag(n *models.Node, additive bool, scene models.Point) {
	if !c.isSelected(n.ID) {
		if !additive {
			c.selected = nil
		}
		c.selected = append(c.selected, n.ID)
	}
	c.focus(n)

	c.dragAnchor = scene
	c.dragOrigin = make(map[models.NodeID]models.Point, len(c.selected))
	for _, id := range c.selected {
		if m, ok := c.store.Node(id); ok {
			c.dragOrigin[id] = m.Pos
		}
	}
	c.setState(StateDraggingNode)
}

func (c *Controller) beginEdit(n *models.Node) {
	c.selected = []models.NodeID{n.ID}
	c.editing = n.ID
	n.Editing = true
	if n.Text == models.PlaceholderText {
		n.Text = ""
		c.touch()
	}
	c.setState(StateEditingText)
	c.focus(n)
	c.listener.Repaint()
}

func (c *Controller) editText(text string) {
	if c.state != StateEditingText {
		return
	}
	n, ok := c.store.Node(c.editing)
	if !ok {
		return
	}
	n.Text = text
	c.touch()
}

func (c *Controller) commitEdit() {
	if c.state != StateEditingText {
		return
	}
	if n, ok := c.store.Node(c.editing); ok {
		n.Editing = false
	}
	c.editing = ""
	c.setState(StateIdle)
	c.listener.Repaint()
}

func (c *Controller) wheel(ev Event) {
	if ev.Command() {
		switch {
		case ev.Delta.Y > 0:
			c.view.ZoomIn(ev.Pos)
		case ev.Delta.Y < 0:
			c.view.ZoomOut(ev.Pos)
		default:
			return
		}
		c.listener.Repaint()
		return
	}
	c.view.Pan(ev.Delta)
	c.listener.Repaint()
}

func (c *Controller) pinch(ev Event) {
	if ev.Scale <= 0 || math.IsNaN(ev.Scale) {
		return
	}
	factor := ev.Scale / c.pinchLast
	c.pinchLast = ev.Scale
	if math.Abs(1-factor) <= c.pinchThreshold {
		return
	}
	if c.view.ZoomBy(factor, ev.Pos) {
		c.listener.Repaint()
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("canvas: state",
		slog.String("from", c.state.String()),
		slog.String("to", s.String()))
	c.state = s
}

func (c *Controller) focus(n *models.Node) {
	c.active = n.ID
	c.listener.NodeFocused(n.Clone())
}

func (c *Controller) touch() {
	c.revision++
	c.listener.Repaint()
}

func (c *Controller) isSelected(id models.NodeID) bool {
	return slices.Contains(c.selected, id)
}

// center returns the screen centre of the viewport.
func (c *Controller) center() models.Point {
	return c.size.Scale(0.5)
}
