// Package models defines the domain types for the canvas: nodes, connections,
// geometry and project metadata.
package models

import (
	"math"

	"github.com/google/uuid"
)

// Node defaults and geometry constants (canvas units).
const (
	DefaultNodeWidth  = 250.0
	DefaultNodeHeight = 300.0
	MinNodeSize       = 100.0

	HandleSize         = 10.0
	SocketRadius       = 8.0
	SocketHitboxRadius = 3 * SocketRadius

	DefaultTitle    = "New Node"
	PlaceholderText = "Enter text here..."
)

// NodeID is the stable identity of a node. It is assigned at creation time
// and used for serialization and clipboard round trips.
type NodeID string

// NewNodeID returns a fresh random identity.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Socket names one of a node's two connection points.
type Socket int

const (
	SocketNone Socket = iota
	SocketInput
	SocketOutput
)

// Opposite returns the socket type a connection from s must end on.
func (s Socket) Opposite() Socket {
	switch s {
	case SocketInput:
		return SocketOutput
	case SocketOutput:
		return SocketInput
	default:
		return SocketNone
	}
}

func (s Socket) String() string {
	switch s {
	case SocketInput:
		return "input"
	case SocketOutput:
		return "output"
	default:
		return "none"
	}
}

// Node is a positioned, resizable, coloured text container.
type Node struct {
	ID              NodeID  `json:"id"`
	Title           string  `json:"title"`
	Text            string  `json:"text"`
	Pos             Point   `json:"pos"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Color           Color   `json:"color"`
	OrderNumber     *int    `json:"order_number"`
	InputConnected  bool    `json:"input_connected"`
	OutputConnected bool    `json:"output_connected"`
	Editing         bool    `json:"editing"`
}

// NewNode returns a node with default size and colour at the origin.
func NewNode(title, text string) *Node {
	return &Node{
		ID:     NewNodeID(),
		Title:  title,
		Text:   text,
		Width:  DefaultNodeWidth,
		Height: DefaultNodeHeight,
		Color:  DefaultColor,
	}
}

// Bounds returns the node rectangle in canvas coordinates.
func (n *Node) Bounds() Rect {
	return Rect{X: n.Pos.X, Y: n.Pos.Y, Width: n.Width, Height: n.Height}
}

// Resize sets the node size, never going below MinNodeSize on either axis.
func (n *Node) Resize(w, h float64) {
	n.Width = ClampSize(w)
	n.Height = ClampSize(h)
}

// SetColor applies c if it belongs to the palette. It reports whether the
// colour changed.
func (n *Node) SetColor(c Color) bool {
	if !c.Valid() || n.Color == c {
		return false
	}
	n.Color = c
	return true
}

// SocketPos returns the canvas position of socket s.
func (n *Node) SocketPos(s Socket) Point {
	switch s {
	case SocketOutput:
		return Point{X: n.Pos.X + n.Width, Y: n.Pos.Y + n.Height/2}
	default:
		return Point{X: n.Pos.X, Y: n.Pos.Y + n.Height/2}
	}
}

// SocketAt returns the socket whose hitbox contains p, or SocketNone.
func (n *Node) SocketAt(p Point) Socket {
	if p.Dist(n.SocketPos(SocketInput)) <= SocketHitboxRadius {
		return SocketInput
	}
	if p.Dist(n.SocketPos(SocketOutput)) <= SocketHitboxRadius {
		return SocketOutput
	}
	return SocketNone
}

// SocketConnected reports the connected flag for s.
func (n *Node) SocketConnected(s Socket) bool {
	switch s {
	case SocketInput:
		return n.InputConnected
	case SocketOutput:
		return n.OutputConnected
	default:
		return false
	}
}

// HandleRect returns the resize handle square at the bottom-right corner.
func (n *Node) HandleRect() Rect {
	return Rect{
		X:      n.Pos.X + n.Width - HandleSize,
		Y:      n.Pos.Y + n.Height - HandleSize,
		Width:  HandleSize,
		Height: HandleSize,
	}
}

// Order returns the order number, or 0 when unassigned.
func (n *Node) Order() int {
	if n.OrderNumber == nil {
		return 0
	}
	return *n.OrderNumber
}

// SetOrder assigns the order number.
func (n *Node) SetOrder(v int) {
	n.OrderNumber = &v
}

// Clone returns a detached copy of n.
func (n *Node) Clone() *Node {
	c := *n
	if n.OrderNumber != nil {
		v := *n.OrderNumber
		c.OrderNumber = &v
	}
	return &c
}

// ClampSize applies the minimum node dimension. NaN collapses to the minimum.
func ClampSize(v float64) float64 {
	if math.IsNaN(v) || v < MinNodeSize {
		return MinNodeSize
	}
	return v
}

// OrderLess orders nodes by order number with unassigned numbers last.
func OrderLess(a, b *Node) bool {
	switch {
	case a.OrderNumber == nil:
		return false
	case b.OrderNumber == nil:
		return true
	default:
		return *a.OrderNumber < *b.OrderNumber
	}
}
