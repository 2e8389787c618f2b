// Package project converts a graph.Store to and from the .dou document format
// and renders paths as Markdown and prompt context.
package project

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/models"
)

// FormatVersion is written to every saved document.
const FormatVersion = "1.0"

// Document is the persisted project layout.
type Document struct {
	Version     string                `json:"version"`
	Nodes       map[string]NodeRecord `json:"nodes"`
	Connections []ConnectionRecord    `json:"connections"`
}

// NodeRecord is one node of a Document. Pointer fields distinguish a missing
// key from a zero value.
type NodeRecord struct {
	Title       *string  `json:"title"`
	Text        *string  `json:"text"`
	PosX        *float64 `json:"pos_x"`
	PosY        *float64 `json:"pos_y"`
	Width       *float64 `json:"width"`
	Height      *float64 `json:"height"`
	Color       string   `json:"color,omitempty"`
	OrderNumber *int     `json:"order_number"`
}

// Validate rejects records missing a required attribute.
func (r NodeRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NotNil),
		validation.Field(&r.Text, validation.NotNil),
		validation.Field(&r.PosX, validation.NotNil),
		validation.Field(&r.PosY, validation.NotNil),
		validation.Field(&r.Width, validation.NotNil),
		validation.Field(&r.Height, validation.NotNil),
	)
}

// ConnectionRecord is one edge of a Document.
type ConnectionRecord struct {
	StartNode string          `json:"start_node"`
	EndNode   string          `json:"end_node"`
	EdgeType  models.EdgeType `json:"edge_type"`
}

// Validate rejects records without both endpoints.
func (r ConnectionRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StartNode, validation.Required),
		validation.Field(&r.EndNode, validation.Required),
	)
}

// Validate checks the document shape. Graph shape (cycles, orphans, dangling
// edges) is never a validation error.
func (d Document) Validate() error {
	if err := validation.Validate(d.Nodes, validation.NotNil); err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	for id, rec := range d.Nodes {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("node %q: %w", id, err)
		}
	}
	for i, rec := range d.Connections {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("connection %d: %w", i, err)
		}
	}
	return nil
}

// Encode captures store as a Document.
func Encode(store *graph.Store) Document {
	doc := Document{
		Version:     FormatVersion,
		Nodes:       make(map[string]NodeRecord, store.Len()),
		Connections: []ConnectionRecord{},
	}
	for _, n := range store.Nodes() {
		n = n.Clone()
		doc.Nodes[string(n.ID)] = NodeRecord{
			Title:       &n.Title,
			Text:        &n.Text,
			PosX:        &n.Pos.X,
			PosY:        &n.Pos.Y,
			Width:       &n.Width,
			Height:      &n.Height,
			Color:       string(n.Color),
			OrderNumber: n.OrderNumber,
		}
	}
	for _, c := range store.Connections() {
		_, okS := doc.Nodes[string(c.Start)]
		_, okE := doc.Nodes[string(c.End)]
		if !okS || !okE {
			continue
		}
		doc.Connections = append(doc.Connections, ConnectionRecord{
			StartNode: string(c.Start),
			EndNode:   string(c.End),
			EdgeType:  c.EdgeType,
		})
	}
	return doc
}

// Marshal renders store as an indented .dou document.
func Marshal(store *graph.Store) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(store), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("project: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Loaded is the outcome of decoding a document.
type Loaded struct {
	Store   *graph.Store
	Version string
	// Dropped lists edges whose endpoints were missing. Each wraps
	// apperr.ErrDanglingEdge.
	Dropped []error
}

// Unmarshal parses data into a fresh store. Malformed input yields an error
// wrapping apperr.ErrLoadParse and no store.
func Unmarshal(data []byte) (*Loaded, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project: %w: %v", apperr.ErrLoadParse, err)
	}
	return Decode(doc)
}

// Decode rebuilds a store from doc: nodes first, keeping their document keys
// as identities, then edges, then a renumber. Edges referencing unknown nodes
// are dropped.
func Decode(doc Document) (*Loaded, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("project: %w: %v", apperr.ErrLoadParse, err)
	}
	version := doc.Version
	if version == "" {
		version = FormatVersion
	}

	keys := make([]string, 0, len(doc.Nodes))
	for k := range doc.Nodes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ra, rb := doc.Nodes[a].OrderNumber, doc.Nodes[b].OrderNumber
		switch {
		case ra == nil && rb == nil:
			return cmp.Compare(a, b)
		case ra == nil:
			return 1
		case rb == nil:
			return -1
		}
		if c := cmp.Compare(*ra, *rb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	store := graph.New()
	for _, k := range keys {
		rec := doc.Nodes[k]
		color, ok := models.ParseColor(rec.Color)
		if !ok {
			color = models.DefaultColor
		}
		n := &models.Node{
			ID:     models.NodeID(k),
			Title:  *rec.Title,
			Text:   *rec.Text,
			Pos:    models.Pt(*rec.PosX, *rec.PosY),
			Width:  *rec.Width,
			Height: *rec.Height,
			Color:  color,
		}
		if rec.OrderNumber != nil {
			n.SetOrder(*rec.OrderNumber)
		}
		store.Insert(n)
	}

	out := &Loaded{Store: store, Version: version}
	for _, rec := range doc.Connections {
		_, okS := store.Node(models.NodeID(rec.StartNode))
		_, okE := store.Node(models.NodeID(rec.EndNode))
		if !okS || !okE {
			out.Dropped = append(out.Dropped, fmt.Errorf("%w: %s -> %s",
				apperr.ErrDanglingEdge, rec.StartNode, rec.EndNode))
			continue
		}
		store.ConnectEdge(models.NodeID(rec.StartNode), models.NodeID(rec.EndNode), normalizeEdge(rec.EdgeType))
	}

	store.RenumberAll()
	return out, nil
}

func normalizeEdge(e models.EdgeType) models.EdgeType {
	switch e {
	case models.EdgeLeft, models.EdgeRight, models.EdgeTop, models.EdgeBottom:
		return e
	default:
		return models.DefaultEdgeType
	}
}
