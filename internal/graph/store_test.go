package graph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/models"
)

func orders(s *Store) []int {
	var out []int
	for _, n := range s.Nodes() {
		out = append(out, n.Order())
	}
	return out
}

func TestAddNode(t *testing.T) {
	s := New()
	a := s.AddNode("Intro", "Hello")
	b := s.AddNode("Body", "World")

	assert.Equal(t, 250.0, a.Width)
	assert.Equal(t, 300.0, a.Height)
	assert.Equal(t, models.ColorYellow, a.Color)
	assert.Equal(t, 1, a.Order())
	assert.Equal(t, 2, b.Order())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, s.Len())
}

func TestCounterNotReusedWithoutRenumber(t *testing.T) {
	s := New()
	s.AddNode("a", "")
	b := s.AddNode("b", "")
	s.Insert(&models.Node{ID: "loose", Width: 100, Height: 100})
	c := s.AddNode("c", "")
	assert.Equal(t, 2, b.Order())
	assert.Equal(t, 3, c.Order())
}

func TestConnect(t *testing.T) {
	t.Run("idempotent for the same ordered pair", func(t *testing.T) {
		s := New()
		a := s.AddNode("a", "")
		b := s.AddNode("b", "")

		c1, created := s.Connect(a.ID, b.ID)
		require.True(t, created)
		c2, created := s.Connect(a.ID, b.ID)
		assert.False(t, created)
		assert.Same(t, c1, c2)
		assert.Len(t, s.Connections(), 1)
		assert.True(t, a.OutputConnected)
		assert.True(t, b.InputConnected)
		assert.Equal(t, models.EdgeRight, c1.EdgeType)
	})

	t.Run("reverse pair is a distinct connection", func(t *testing.T) {
		s := New()
		a := s.AddNode("a", "")
		b := s.AddNode("b", "")
		s.Connect(a.ID, b.ID)
		_, created := s.Connect(b.ID, a.ID)
		assert.True(t, created)
		assert.Len(t, s.Connections(), 2)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		s := New()
		a := s.AddNode("a", "")
		c, created := s.Connect(a.ID, "nope")
		assert.Nil(t, c)
		assert.False(t, created)
		assert.False(t, a.OutputConnected)
	})
}

func TestDisconnect(t *testing.T) {
	s := New()
	a := s.AddNode("a", "")
	b := s.AddNode("b", "")
	c := s.AddNode("c", "")
	ab, _ := s.Connect(a.ID, b.ID)
	s.Connect(b.ID, c.ID)

	require.True(t, s.Disconnect(ab))
	assert.False(t, a.OutputConnected)
	assert.False(t, b.InputConnected)
	assert.True(t, b.OutputConnected)
	assert.Len(t, s.Connections(), 1)

	assert.False(t, s.Disconnect(ab), "second disconnect is a no-op")
	assert.Len(t, s.Connections(), 1)
}

func TestRemoveNodes(t *testing.T) {
	s := New()
	a := s.AddNode("a", "")
	b := s.AddNode("b", "")
	c := s.AddNode("c", "")
	s.Connect(a.ID, b.ID)
	s.Connect(b.ID, c.ID)

	n := s.RemoveNodes(b.ID, "unknown")
	assert.Equal(t, 1, n)
	assert.Empty(t, s.Connections())
	assert.False(t, a.OutputConnected)
	assert.False(t, c.InputConnected)
	assert.Equal(t, []int{1, 2}, orders(s))
	assert.Equal(t, 2, s.Counter())

	_, ok := s.Node(b.ID)
	assert.False(t, ok)
}

func TestRenumberAll(t *testing.T) {
	s := New()
	a := s.AddNode("a", "")
	b := s.AddNode("b", "")
	c := s.AddNode("c", "")
	d := &models.Node{ID: "d", Width: 100, Height: 100}
	s.Insert(d)

	a.SetOrder(40)
	b.SetOrder(7)
	c.SetOrder(7)

	s.RenumberAll()
	assert.Equal(t, 3, a.Order())
	assert.Equal(t, 1, b.Order(), "ties keep insertion order")
	assert.Equal(t, 2, c.Order())
	assert.Equal(t, 4, d.Order(), "unassigned sorts last")
	assert.Equal(t, 4, s.Counter())
}

func TestOrderNumbersStayUniqueUnderChurn(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New()
	for i := 0; i < 500; i++ {
		if s.Len() == 0 || rng.Intn(3) > 0 {
			s.AddNode("n", "")
		} else {
			nodes := s.Nodes()
			s.RemoveNodes(nodes[rng.Intn(len(nodes))].ID)
			got := orders(s)
			for j := range got {
				require.Contains(t, got, j+1, "dense after renumber")
			}
		}
		seen := map[int]bool{}
		for _, o := range orders(s) {
			require.False(t, seen[o], "duplicate order number %d", o)
			seen[o] = true
		}
	}
}

func TestMoveReroutesConnections(t *testing.T) {
	s := New()
	a := s.AddNode("a", "")
	b := s.AddNode("b", "")
	s.Move(b.ID, models.Pt(500, 0))
	c, _ := s.Connect(a.ID, b.ID)

	assert.Equal(t, models.Pt(250, 150), c.Curve.Start)
	assert.Equal(t, models.Pt(500, 150), c.Curve.End)

	s.Move(a.ID, models.Pt(0, 100))
	assert.Equal(t, models.Pt(250, 250), c.Curve.Start)
	assert.Equal(t, c.Curve.Start, c.Curve.At(0))
	assert.Equal(t, c.Curve.End, c.Curve.At(1))
}

func TestItemsPaintOrder(t *testing.T) {
	s := New()
	a := s.AddNode("a", "")
	b := s.AddNode("b", "")
	s.Connect(a.ID, b.ID)

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, models.ItemConnection, items[0].Kind)
	assert.Equal(t, models.ItemNode, items[1].Kind)
	assert.Same(t, a, items[1].Node)
	assert.Same(t, b, items[2].Node)
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	s := New()
	assert.True(t, s.Insert(&models.Node{ID: "x", Width: 10, Height: 500, Color: "Teal"}))
	assert.False(t, s.Insert(&models.Node{ID: "x"}))

	n, _ := s.Node("x")
	assert.Equal(t, models.MinNodeSize, n.Width)
	assert.Equal(t, 500.0, n.Height)
	assert.Equal(t, models.ColorYellow, n.Color)
}
