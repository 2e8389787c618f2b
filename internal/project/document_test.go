package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/models"
)

type nodeTuple struct {
	Title, Text string
	X, Y, W, H  float64
	Color       models.Color
	Order       int
}

func tuples(s *graph.Store) map[models.NodeID]nodeTuple {
	out := make(map[models.NodeID]nodeTuple)
	for _, n := range s.Nodes() {
		out[n.ID] = nodeTuple{n.Title, n.Text, n.Pos.X, n.Pos.Y, n.Width, n.Height, n.Color, n.Order()}
	}
	return out
}

type edge struct {
	Start, End models.NodeID
	Type       models.EdgeType
}

func edges(s *graph.Store) []edge {
	var out []edge
	for _, c := range s.Connections() {
		out = append(out, edge{c.Start, c.End, c.EdgeType})
	}
	return out
}

func sampleStore() *graph.Store {
	s := graph.New()
	a := s.AddNode("Intro", "Hello")
	b := s.AddNode("Body", "World")
	c := s.AddNode("Aside", "")
	s.Move(a.ID, models.Pt(10, 20))
	s.Move(b.ID, models.Pt(400, -35.5))
	b.Resize(320, 140)
	b.SetColor(models.ColorBlue)
	c.SetColor(models.ColorLightGrey)
	s.ConnectEdge(a.ID, b.ID, models.EdgeTop)
	return s
}

func TestRoundTrip(t *testing.T) {
	g := sampleStore()
	data, err := Marshal(g)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, loaded.Version)
	assert.Empty(t, loaded.Dropped)

	assert.Equal(t, tuples(g), tuples(loaded.Store))
	assert.ElementsMatch(t, edges(g), edges(loaded.Store))

	for _, n := range loaded.Store.Nodes() {
		orig, _ := g.Node(n.ID)
		assert.Equal(t, orig.InputConnected, n.InputConnected, n.Title)
		assert.Equal(t, orig.OutputConnected, n.OutputConnected, n.Title)
	}
	assert.Equal(t, 3, loaded.Store.Counter())
}

func TestMarshalLayout(t *testing.T) {
	s := graph.New()
	a := s.AddNode("T", "x")

	data, err := Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.0", raw["version"])
	assert.Equal(t, []any{}, raw["connections"])

	nodes := raw["nodes"].(map[string]any)
	rec := nodes[string(a.ID)].(map[string]any)
	assert.Equal(t, "T", rec["title"])
	assert.Equal(t, 0.0, rec["pos_x"])
	assert.Equal(t, 250.0, rec["width"])
	assert.Equal(t, "Yellow", rec["color"])
	assert.Equal(t, 1.0, rec["order_number"])
	assert.Contains(t, string(data), "\n  \"nodes\"", "two-space indentation")
}

func TestUnmarshalDropsDanglingEdges(t *testing.T) {
	doc := `{
  "version": "1.0",
  "nodes": {
    "a": {"title": "A", "text": "", "pos_x": 0, "pos_y": 0, "width": 250, "height": 300, "color": "Red", "order_number": 1}
  },
  "connections": [
    {"start_node": "a", "end_node": "ghost", "edge_type": "right"}
  ]
}`
	loaded, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Store.Len())
	assert.Empty(t, loaded.Store.Connections())
	require.Len(t, loaded.Dropped, 1)
	assert.ErrorIs(t, loaded.Dropped[0], apperr.ErrDanglingEdge)

	a, ok := loaded.Store.Node("a")
	require.True(t, ok)
	assert.False(t, a.OutputConnected)
	assert.Equal(t, models.ColorRed, a.Color)
}

func TestUnmarshalRenumbers(t *testing.T) {
	doc := `{
  "version": "1.0",
  "nodes": {
    "x": {"title": "X", "text": "", "pos_x": 0, "pos_y": 0, "width": 250, "height": 300, "order_number": 7},
    "y": {"title": "Y", "text": "", "pos_x": 0, "pos_y": 0, "width": 250, "height": 300, "order_number": null},
    "z": {"title": "Z", "text": "", "pos_x": 0, "pos_y": 0, "width": 250, "height": 300, "order_number": 3}
  },
  "connections": []
}`
	loaded, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	order := map[string]int{}
	for _, n := range loaded.Store.Nodes() {
		order[n.Title] = n.Order()
	}
	assert.Equal(t, map[string]int{"Z": 1, "X": 2, "Y": 3}, order)
	assert.Equal(t, 3, loaded.Store.Counter())
}

func TestUnmarshalTolerance(t *testing.T) {
	doc := `{
  "version": "9.9",
  "future": {"anything": true},
  "nodes": {
    "a": {"title": "A", "text": "", "pos_x": 0, "pos_y": 0, "width": 20, "height": 300, "color": "Chartreuse", "order_number": 1, "extra": 1},
    "b": {"title": "B", "text": "", "pos_x": 0, "pos_y": 0, "width": 250, "height": 300, "order_number": 2}
  },
  "connections": [
    {"start_node": "a", "end_node": "b", "edge_type": "diagonal"},
    {"start_node": "b", "end_node": "a"}
  ]
}`
	loaded, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "9.9", loaded.Version)

	a, _ := loaded.Store.Node("a")
	assert.Equal(t, models.DefaultColor, a.Color)
	assert.Equal(t, models.MinNodeSize, a.Width)

	assert.ElementsMatch(t, []edge{
		{"a", "b", models.EdgeRight},
		{"b", "a", models.EdgeRight},
	}, edges(loaded.Store), "cycles load as-is")
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"nodes": `,
		"no nodes":        `{"version": "1.0", "connections": []}`,
		"nodes not a map": `{"nodes": []}`,
		"missing width":   `{"nodes": {"a": {"title": "A", "text": "", "pos_x": 0, "pos_y": 0, "height": 1}}}`,
		"missing start":   `{"nodes": {}, "connections": [{"end_node": "a", "edge_type": "right"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			loaded, err := Unmarshal([]byte(doc))
			assert.ErrorIs(t, err, apperr.ErrLoadParse)
			assert.Nil(t, loaded)
		})
	}
}
