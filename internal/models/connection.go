package models

// EdgeType selects the node side a connection curve anchors to.
type EdgeType string

const (
	EdgeLeft   EdgeType = "left"
	EdgeRight  EdgeType = "right"
	EdgeTop    EdgeType = "top"
	EdgeBottom EdgeType = "bottom"

	DefaultEdgeType = EdgeRight
)

// Opposite returns the side the end of an edge anchors to.
func (e EdgeType) Opposite() EdgeType {
	switch e {
	case EdgeLeft:
		return EdgeRight
	case EdgeRight:
		return EdgeLeft
	case EdgeTop:
		return EdgeBottom
	case EdgeBottom:
		return EdgeTop
	default:
		return e
	}
}

// Horizontal reports whether e anchors on a vertical node edge.
func (e EdgeType) Horizontal() bool {
	return e != EdgeTop && e != EdgeBottom
}

// EdgePoint returns the midpoint of side e of n. Unknown sides resolve to the
// bottom edge.
func EdgePoint(n *Node, e EdgeType) Point {
	switch e {
	case EdgeLeft:
		return Point{X: n.Pos.X, Y: n.Pos.Y + n.Height/2}
	case EdgeRight:
		return Point{X: n.Pos.X + n.Width, Y: n.Pos.Y + n.Height/2}
	case EdgeTop:
		return Point{X: n.Pos.X + n.Width/2, Y: n.Pos.Y}
	default:
		return Point{X: n.Pos.X + n.Width/2, Y: n.Pos.Y + n.Height}
	}
}

// Connection is a directed edge from Start's output socket to End's input
// socket. At most one connection exists per ordered (Start, End) pair.
type Connection struct {
	Start    NodeID   `json:"start_node"`
	End      NodeID   `json:"end_node"`
	EdgeType EdgeType `json:"edge_type"`
	Curve    Curve    `json:"curve"`
}

// Touches reports whether id is either endpoint.
func (c *Connection) Touches(id NodeID) bool {
	return c.Start == id || c.End == id
}

// Reroute recomputes the curve from the current endpoint geometry.
func (c *Connection) Reroute(start, end *Node) {
	from := EdgePoint(start, c.EdgeType)
	to := EdgePoint(end, c.EdgeType.Opposite())
	if c.EdgeType.Horizontal() {
		c.Curve = HorizontalCurve(from, to)
		return
	}
	c.Curve = VerticalCurve(from, to)
}
