package models

import "math"

// Point is a position in canvas (scene) or screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// ManhattanLength returns |x|+|y|.
func (p Point) ManhattanLength() float64 {
	return math.Abs(p.X) + math.Abs(p.Y)
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// TopLeft returns the anchor corner of r.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Curve is a cubic Bézier segment from Start to End.
type Curve struct {
	Start Point `json:"start"`
	Ctrl1 Point `json:"ctrl1"`
	Ctrl2 Point `json:"ctrl2"`
	End   Point `json:"end"`
}

// At evaluates the curve at t in [0,1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.Ctrl1.X + d*c.Ctrl2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.Ctrl1.Y + d*c.Ctrl2.Y + e*c.End.Y,
	}
}

// HorizontalCurve builds the curve used for left/right anchored edges and for
// the live drag preview: control points sit at 1/3 and 2/3 of dx, keeping the
// tangents horizontal at both ends.
func HorizontalCurve(start, end Point) Curve {
	dx := end.X - start.X
	return Curve{
		Start: start,
		Ctrl1: Point{X: start.X + dx/3, Y: start.Y},
		Ctrl2: Point{X: start.X + 2*dx/3, Y: end.Y},
		End:   end,
	}
}

// VerticalCurve builds the curve used for top/bottom anchored edges.
func VerticalCurve(start, end Point) Curve {
	dy := end.Y - start.Y
	return Curve{
		Start: start,
		Ctrl1: Point{X: start.X, Y: start.Y + dy/3},
		Ctrl2: Point{X: end.X, Y: start.Y + 2*dy/3},
		End:   end,
	}
}
