package graph

import (
	"slices"

	"github.com/starford/dou/internal/models"
)

// Path is an ordered list of nodes reached by following outgoing connections.
type Path []*models.Node

// PathFrom walks outgoing connections depth-first from id, visiting each
// node at most once. A cycle truncates the walk at the first repeated node.
func (s *Store) PathFrom(id models.NodeID) Path {
	return s.walk(id, make(map[models.NodeID]struct{}))
}

func (s *Store) walk(id models.NodeID, visited map[models.NodeID]struct{}) Path {
	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	var out Path
	stack := []models.NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		out = append(out, s.nodes[cur])

		// Push children in reverse so the first connection is walked first.
		next := s.successors(cur)
		for i := len(next) - 1; i >= 0; i-- {
			if _, seen := visited[next[i]]; !seen {
				stack = append(stack, next[i])
			}
		}
	}
	return out
}

func (s *Store) successors(id models.NodeID) []models.NodeID {
	var out []models.NodeID
	for _, c := range s.conns {
		if c.Start == id {
			out = append(out, c.End)
		}
	}
	return out
}

// Roots returns nodes without an incoming connection, in insertion order.
func (s *Store) Roots() []*models.Node {
	hasInput := make(map[models.NodeID]struct{}, len(s.conns))
	for _, c := range s.conns {
		hasInput[c.End] = struct{}{}
	}
	var out []*models.Node
	for _, id := range s.order {
		if _, ok := hasInput[id]; !ok {
			out = append(out, s.nodes[id])
		}
	}
	return out
}

// AllPaths returns one path per root not already covered by an earlier path.
//
// Nodes that are reachable only through a cycle with no root are not part of
// any path; Unreached reports them.
func (s *Store) AllPaths() []Path {
	var paths []Path
	visited := make(map[models.NodeID]struct{})
	for _, root := range s.Roots() {
		if _, ok := visited[root.ID]; ok {
			continue
		}
		p := s.PathFrom(root.ID)
		paths = append(paths, p)
		for _, n := range p {
			visited[n.ID] = struct{}{}
		}
	}
	return paths
}

// Unreached returns the live nodes that appear in none of paths.
func (s *Store) Unreached(paths []Path) []*models.Node {
	seen := make(map[models.NodeID]struct{})
	for _, p := range paths {
		for _, n := range p {
			seen[n.ID] = struct{}{}
		}
	}
	var out []*models.Node
	for _, id := range s.order {
		if _, ok := seen[id]; !ok {
			out = append(out, s.nodes[id])
		}
	}
	return out
}

// SortedByOrder returns a copy of p ordered by order number, unassigned last.
// The sort is stable so equal numbers keep walk order.
func (p Path) SortedByOrder() Path {
	out := slices.Clone(p)
	slices.SortStableFunc(out, compareOrder)
	return out
}

// IDs returns the node identities of p in order.
func (p Path) IDs() []models.NodeID {
	out := make([]models.NodeID, len(p))
	for i, n := range p {
		out[i] = n.ID
	}
	return out
}
