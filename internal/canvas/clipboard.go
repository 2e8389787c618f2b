package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/models"
)

// Clipboard stores the interchange payload shared by copy and paste.
type Clipboard interface {
	Write(ctx context.Context, data []byte) error
	// Read returns the current payload, or nil when the clipboard is empty.
	Read(ctx context.Context) ([]byte, error)
}

// NodeDescriptor is one node in the clipboard interchange format. It never
// carries identity or connections.
type NodeDescriptor struct {
	Title  string     `json:"title"`
	Text   string     `json:"text"`
	Pos    [2]float64 `json:"pos"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Point returns the descriptor position.
func (d NodeDescriptor) Point() models.Point {
	return models.Pt(d.Pos[0], d.Pos[1])
}

// Describe builds the descriptor for n.
func Describe(n *models.Node) NodeDescriptor {
	return NodeDescriptor{
		Title:  n.Title,
		Text:   n.Text,
		Pos:    [2]float64{n.Pos.X, n.Pos.Y},
		Width:  n.Width,
		Height: n.Height,
	}
}

// rawDescriptor mirrors NodeDescriptor with presence tracking so that a
// payload missing any field is rejected.
type rawDescriptor struct {
	Title  *string   `json:"title"`
	Text   *string   `json:"text"`
	Pos    []float64 `json:"pos"`
	Width  *float64  `json:"width"`
	Height *float64  `json:"height"`
}

func (r rawDescriptor) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NotNil),
		validation.Field(&r.Text, validation.NotNil),
		validation.Field(&r.Pos, validation.Required, validation.Length(2, 2)),
		validation.Field(&r.Width, validation.NotNil),
		validation.Field(&r.Height, validation.NotNil),
	)
}

// EncodeNodes renders descriptors in the interchange format.
func EncodeNodes(nodes []NodeDescriptor) ([]byte, error) {
	if nodes == nil {
		nodes = []NodeDescriptor{}
	}
	return json.Marshal(nodes)
}

// DecodeNodes parses an interchange payload. Anything other than a JSON list
// of complete descriptors yields apperr.ErrClipboardFormat.
func DecodeNodes(data []byte) ([]NodeDescriptor, error) {
	var raw []rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrClipboardFormat, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a list", apperr.ErrClipboardFormat)
	}
	out := make([]NodeDescriptor, 0, len(raw))
	for i, r := range raw {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", apperr.ErrClipboardFormat, i, err)
		}
		out = append(out, NodeDescriptor{
			Title:  *r.Title,
			Text:   *r.Text,
			Pos:    [2]float64{r.Pos[0], r.Pos[1]},
			Width:  *r.Width,
			Height: *r.Height,
		})
	}
	return out, nil
}

// MemoryClipboard is a process-local clipboard.
type MemoryClipboard struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryClipboard returns an empty clipboard.
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

func (m *MemoryClipboard) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryClipboard) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}
