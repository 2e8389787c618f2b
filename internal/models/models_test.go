package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode("Intro", "Hello")
	assert.NotEmpty(t, n.ID)
	assert.NotEqual(t, n.ID, NewNode("", "").ID)
	assert.Equal(t, DefaultNodeWidth, n.Width)
	assert.Equal(t, DefaultNodeHeight, n.Height)
	assert.Equal(t, ColorYellow, n.Color)
	assert.Nil(t, n.OrderNumber)
}

func TestSockets(t *testing.T) {
	n := NewNode("", "")
	n.Pos = Pt(100, 100)
	n.Resize(200, 150)

	assert.Equal(t, Pt(100, 175), n.SocketPos(SocketInput))
	assert.Equal(t, Pt(300, 175), n.SocketPos(SocketOutput))
	assert.Equal(t, SocketInput, n.SocketAt(Pt(100+SocketHitboxRadius, 175)))
	assert.Equal(t, SocketOutput, n.SocketAt(Pt(290, 180)))
	assert.Equal(t, SocketNone, n.SocketAt(Pt(200, 175)))
	assert.Equal(t, SocketOutput, SocketInput.Opposite())
	assert.Equal(t, Rect{X: 290, Y: 240, Width: HandleSize, Height: HandleSize}, n.HandleRect())
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, MinNodeSize, ClampSize(-50))
	assert.Equal(t, MinNodeSize, ClampSize(math.NaN()))
	assert.Equal(t, 120.0, ClampSize(120))

	n := NewNode("", "")
	n.Resize(10, 500)
	assert.Equal(t, MinNodeSize, n.Width)
	assert.Equal(t, 500.0, n.Height)
}

func TestConnectionCurves(t *testing.T) {
	a := NewNode("", "")
	a.Pos = Pt(0, 0)
	a.Resize(100, 100)
	b := NewNode("", "")
	b.Pos = Pt(300, 200)
	b.Resize(100, 100)

	c := &Connection{Start: a.ID, End: b.ID, EdgeType: EdgeRight}
	c.Reroute(a, b)
	assert.Equal(t, Pt(100, 50), c.Curve.Start)
	assert.Equal(t, Pt(300, 250), c.Curve.End)
	assert.InDelta(t, 100+200.0/3, c.Curve.Ctrl1.X, 1e-9)
	assert.Equal(t, 50.0, c.Curve.Ctrl1.Y)
	assert.InDelta(t, 100+400.0/3, c.Curve.Ctrl2.X, 1e-9)
	assert.Equal(t, 250.0, c.Curve.Ctrl2.Y)
	assert.Equal(t, c.Curve.Start, c.Curve.At(0))
	assert.Equal(t, c.Curve.End, c.Curve.At(1))

	c.EdgeType = EdgeBottom
	c.Reroute(a, b)
	assert.Equal(t, Pt(50, 100), c.Curve.Start)
	assert.Equal(t, Pt(350, 200), c.Curve.End)
	assert.Equal(t, 50.0, c.Curve.Ctrl1.X)
	assert.InDelta(t, 100+100.0/3, c.Curve.Ctrl1.Y, 1e-9)

	assert.True(t, c.Touches(a.ID))
	assert.False(t, c.Touches(NewNodeID()))
}

func TestPalette(t *testing.T) {
	assert.Len(t, Palette(), 7)
	c, ok := ParseColor("Light Grey")
	assert.True(t, ok)
	assert.Equal(t, RGB{240, 240, 240}, c.RGB())
	_, ok = ParseColor("Magenta")
	assert.False(t, ok)
	assert.Equal(t, ColorYellow.RGB(), Color("Magenta").RGB())

	n := NewNode("", "")
	assert.False(t, n.SetColor("Magenta"))
	assert.True(t, n.SetColor(ColorBlue))
	assert.False(t, n.SetColor(ColorBlue))
}

func TestOrderAndClone(t *testing.T) {
	a, b := NewNode("a", ""), NewNode("b", "")
	a.SetOrder(2)
	assert.True(t, OrderLess(a, b))
	assert.False(t, OrderLess(b, a))
	b.SetOrder(1)
	assert.True(t, OrderLess(b, a))

	c := a.Clone()
	c.SetOrder(9)
	assert.Equal(t, 2, a.Order())
}
