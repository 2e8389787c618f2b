// Package graph holds the live node/connection graph of a canvas document and
// derives the linear paths consumed by exporters and prompt builders.
package graph

import (
	"slices"

	"github.com/starford/dou/internal/models"
)

// Store owns every node and connection of one document.
//
// Store is not safe for concurrent use; callers confine it to a single
// goroutine (see package session).
type Store struct {
	nodes   map[models.NodeID]*models.Node
	order   []models.NodeID // insertion order, which is also paint order
	conns   []*models.Connection
	counter int
}

// New returns an empty store.
func New() *Store {
	return &Store{nodes: make(map[models.NodeID]*models.Node)}
}

// AddNode creates a node with default geometry and the next order number.
func (s *Store) AddNode(title, text string) *models.Node {
	n := models.NewNode(title, text)
	s.counter++
	n.SetOrder(s.counter)
	s.insert(n)
	return n
}

// Insert adds a fully formed node as-is. It is used when rebuilding a
// document; the order counter is left alone until RenumberAll. A node whose
// ID is already present is rejected.
func (s *Store) Insert(n *models.Node) bool {
	if n.ID == "" {
		n.ID = models.NewNodeID()
	}
	if _, ok := s.nodes[n.ID]; ok {
		return false
	}
	n.Width = models.ClampSize(n.Width)
	n.Height = models.ClampSize(n.Height)
	if !n.Color.Valid() {
		n.Color = models.DefaultColor
	}
	n.InputConnected, n.OutputConnected = false, false
	s.insert(n)
	return true
}

func (s *Store) insert(n *models.Node) {
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
}

// Node returns the node with the given id.
func (s *Store) Node(id models.NodeID) (*models.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns live nodes in insertion order.
func (s *Store) Nodes() []*models.Node {
	out := make([]*models.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	return len(s.order)
}

// Counter returns the current order-number counter.
func (s *Store) Counter() int {
	return s.counter
}

// Connections returns live connections in creation order.
func (s *Store) Connections() []*models.Connection {
	return slices.Clone(s.conns)
}

// Items returns every canvas item in paint order: connections first so nodes
// draw on top of them.
func (s *Store) Items() []models.Item {
	out := make([]models.Item, 0, len(s.conns)+len(s.order))
	for _, c := range s.conns {
		out = append(out, models.Item{Kind: models.ItemConnection, Connection: c})
	}
	for _, id := range s.order {
		out = append(out, models.Item{Kind: models.ItemNode, Node: s.nodes[id]})
	}
	return out
}

// Find returns the connection for the ordered pair (start, end).
func (s *Store) Find(start, end models.NodeID) (*models.Connection, bool) {
	for _, c := range s.conns {
		if c.Start == start && c.End == end {
			return c, true
		}
	}
	return nil, false
}

// Incoming returns the first connection ending at id.
func (s *Store) Incoming(id models.NodeID) (*models.Connection, bool) {
	for _, c := range s.conns {
		if c.End == id {
			return c, true
		}
	}
	return nil, false
}

// Outgoing returns the first connection starting at id.
func (s *Store) Outgoing(id models.NodeID) (*models.Connection, bool) {
	for _, c := range s.conns {
		if c.Start == id {
			return c, true
		}
	}
	return nil, false
}

// Connect links output's output socket to input's input socket with the
// default edge type. An existing connection for the same ordered pair is
// returned unchanged with created=false.
func (s *Store) Connect(output, input models.NodeID) (c *models.Connection, created bool) {
	return s.ConnectEdge(output, input, models.DefaultEdgeType)
}

// ConnectEdge is Connect with an explicit edge type. It returns nil when
// either endpoint does not exist.
func (s *Store) ConnectEdge(output, input models.NodeID, edge models.EdgeType) (*models.Connection, bool) {
	if existing, ok := s.Find(output, input); ok {
		return existing, false
	}
	start, ok := s.nodes[output]
	if !ok {
		return nil, false
	}
	end, ok := s.nodes[input]
	if !ok {
		return nil, false
	}
	if edge == "" {
		edge = models.DefaultEdgeType
	}
	c := &models.Connection{Start: output, End: input, EdgeType: edge}
	c.Reroute(start, end)
	s.conns = append(s.conns, c)
	start.OutputConnected = true
	end.InputConnected = true
	return c, true
}

// Disconnect removes c and clears both endpoint flags.
func (s *Store) Disconnect(c *models.Connection) bool {
	i := slices.Index(s.conns, c)
	if i < 0 {
		return false
	}
	s.conns = slices.Delete(s.conns, i, i+1)
	if n, ok := s.nodes[c.Start]; ok {
		n.OutputConnected = false
	}
	if n, ok := s.nodes[c.End]; ok {
		n.InputConnected = false
	}
	return true
}

// RemoveNodes deletes the given nodes together with every connection touching
// them, clears the surviving endpoints' flags and renumbers. It returns the
// number of nodes removed.
func (s *Store) RemoveNodes(ids ...models.NodeID) int {
	doomed := make(map[models.NodeID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.nodes[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	kept := s.conns[:0]
	for _, c := range s.conns {
		_, startGone := doomed[c.Start]
		_, endGone := doomed[c.End]
		if !startGone && !endGone {
			kept = append(kept, c)
			continue
		}
		if !startGone {
			s.nodes[c.Start].OutputConnected = false
		}
		if !endGone {
			s.nodes[c.End].InputConnected = false
		}
	}
	clear(s.conns[len(kept):])
	s.conns = kept

	s.order = slices.DeleteFunc(s.order, func(id models.NodeID) bool {
		_, gone := doomed[id]
		return gone
	})
	for id := range doomed {
		delete(s.nodes, id)
	}

	s.RenumberAll()
	return len(doomed)
}

// RenumberAll reassigns dense order numbers 1..N following the current
// numbering (unassigned last, ties keep insertion order) and resets the
// counter to N.
func (s *Store) RenumberAll() {
	nodes := s.Nodes()
	slices.SortStableFunc(nodes, compareOrder)
	for i, n := range nodes {
		n.SetOrder(i + 1)
	}
	s.counter = len(nodes)
}

// Move places a node at pos and reroutes its connections.
func (s *Store) Move(id models.NodeID, pos models.Point) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Pos = pos
	s.Reroute(id)
	return true
}

// Reroute recomputes the curve of every connection touching any of ids. With
// no ids every connection is recomputed.
func (s *Store) Reroute(ids ...models.NodeID) {
	touched := func(c *models.Connection) bool {
		if len(ids) == 0 {
			return true
		}
		for _, id := range ids {
			if c.Touches(id) {
				return true
			}
		}
		return false
	}
	for _, c := range s.conns {
		if !touched(c) {
			continue
		}
		start, okS := s.nodes[c.Start]
		end, okE := s.nodes[c.End]
		if okS && okE {
			c.Reroute(start, end)
		}
	}
}

// Clear drops every node and connection and resets the counter.
func (s *Store) Clear() {
	clear(s.nodes)
	s.order = nil
	s.conns = nil
	s.counter = 0
}

func compareOrder(a, b *models.Node) int {
	switch {
	case models.OrderLess(a, b):
		return -1
	case models.OrderLess(b, a):
		return 1
	default:
		return 0
	}
}
