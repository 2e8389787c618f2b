package models

// Color is one of the fixed sticky-note palette entries.
type Color string

// Palette entries. Yellow is the default sticky colour.
const (
	ColorRed       Color = "Red"
	ColorOrange    Color = "Orange"
	ColorYellow    Color = "Yellow"
	ColorGreen     Color = "Green"
	ColorBlue      Color = "Blue"
	ColorPurple    Color = "Purple"
	ColorLightGrey Color = "Light Grey"

	DefaultColor = ColorYellow
)

// RGB is an 8-bit colour triple used by renderers.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var palette = []struct {
	color Color
	rgb   RGB
}{
	{ColorRed, RGB{255, 200, 200}},
	{ColorOrange, RGB{255, 225, 180}},
	{ColorYellow, RGB{255, 255, 153}},
	{ColorGreen, RGB{200, 255, 200}},
	{ColorBlue, RGB{200, 200, 255}},
	{ColorPurple, RGB{230, 200, 255}},
	{ColorLightGrey, RGB{240, 240, 240}},
}

// Palette returns every colour in display order.
func Palette() []Color {
	out := make([]Color, len(palette))
	for i, p := range palette {
		out[i] = p.color
	}
	return out
}

// ParseColor returns the palette colour named s.
func ParseColor(s string) (Color, bool) {
	for _, p := range palette {
		if string(p.color) == s {
			return p.color, true
		}
	}
	return "", false
}

// Valid reports whether c is a palette entry.
func (c Color) Valid() bool {
	_, ok := ParseColor(string(c))
	return ok
}

// RGB returns the fill colour for c; unknown colours render as the default.
func (c Color) RGB() RGB {
	for _, p := range palette {
		if p.color == c {
			return p.rgb
		}
	}
	return palette[2].rgb
}
