package canvas

import (
	"math"

	"github.com/starford/dou/internal/models"
)

// ZoomConfig bounds the view scale.
type ZoomConfig struct {
	Step float64 // factor applied per discrete zoom-in step
	Min  float64
	Max  float64
}

// DefaultZoomConfig returns the stock 1.25x step within [0.1, 5.0].
func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{Step: 1.25, Min: 0.1, Max: 5.0}
}

// zoomEpsilon absorbs float drift so 1.25^7 stays in range while 1.25^8 does not.
const zoomEpsilon = 1e-9

// Viewport maps between scene and screen coordinates:
//
//	screen = scene*zoom + offset
type Viewport struct {
	cfg    ZoomConfig
	zoom   float64
	offset models.Point
}

// NewViewport returns an identity viewport.
func NewViewport(cfg ZoomConfig) *Viewport {
	if cfg.Step <= 1 {
		cfg.Step = DefaultZoomConfig().Step
	}
	if cfg.Min <= 0 || cfg.Max < cfg.Min {
		d := DefaultZoomConfig()
		cfg.Min, cfg.Max = d.Min, d.Max
	}
	return &Viewport{cfg: cfg, zoom: 1}
}

// Zoom returns the current scale.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Offset returns the current translation in screen pixels.
func (v *Viewport) Offset() models.Point { return v.offset }

// ToScene converts a screen position to canvas coordinates.
func (v *Viewport) ToScene(p models.Point) models.Point {
	return p.Sub(v.offset).Scale(1 / v.zoom)
}

// ToScreen converts a canvas position to screen coordinates.
func (v *Viewport) ToScreen(p models.Point) models.Point {
	return p.Scale(v.zoom).Add(v.offset)
}

// RectToScreen maps a canvas rectangle to screen space.
func (v *Viewport) RectToScreen(r models.Rect) models.Rect {
	tl := v.ToScreen(r.TopLeft())
	return models.Rect{X: tl.X, Y: tl.Y, Width: r.Width * v.zoom, Height: r.Height * v.zoom}
}

// Pan translates the view by a screen-space delta.
func (v *Viewport) Pan(delta models.Point) {
	v.offset = v.offset.Add(delta)
}

// ZoomBy scales the view by factor about the screen point focal, keeping the
// canvas point under focal fixed. A factor that would leave the zoom range is
// ignored and ZoomBy reports false.
func (v *Viewport) ZoomBy(factor float64, focal models.Point) bool {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	next := v.zoom * factor
	if next < v.cfg.Min-zoomEpsilon || next > v.cfg.Max+zoomEpsilon {
		return false
	}
	anchor := v.ToScene(focal)
	v.zoom = next
	v.offset = focal.Sub(anchor.Scale(next))
	return true
}

// ZoomIn applies one step about focal.
func (v *Viewport) ZoomIn(focal models.Point) bool {
	return v.ZoomBy(v.cfg.Step, focal)
}

// ZoomOut applies one inverse step about focal.
func (v *Viewport) ZoomOut(focal models.Point) bool {
	return v.ZoomBy(1/v.cfg.Step, focal)
}

// Reset restores 1.0x and the identity transform.
func (v *Viewport) Reset() {
	v.zoom = 1
	v.offset = models.Point{}
}
