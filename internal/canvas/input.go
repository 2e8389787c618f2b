package canvas

import (
	"time"

	"github.com/starford/dou/internal/models"
)

// EventKind discriminates input events.
type EventKind string

const (
	EventPointerDown EventKind = "pointer_down"
	EventPointerMove EventKind = "pointer_move"
	EventPointerUp   EventKind = "pointer_up"
	// EventActivate is a double press: a mouse double click or a synthesized
	// stylus double tap.
	EventActivate EventKind = "activate"
	EventKey      EventKind = "key"
	EventWheel    EventKind = "wheel"
	EventPinch    EventKind = "pinch"
	EventPinchEnd EventKind = "pinch_end"
	// EventText carries the full contents of the in-place editor.
	EventText EventKind = "text"
	// EventBlur reports that the in-place editor lost focus.
	EventBlur   EventKind = "blur"
	EventResize EventKind = "resize"
)

// Device is the physical source of a pointer event.
type Device string

const (
	DeviceMouse  Device = "mouse"
	DeviceStylus Device = "stylus"
)

// Button identifies the pressed pointer button.
type Button string

const (
	ButtonPrimary   Button = "primary"
	ButtonSecondary Button = "secondary"
)

// Key names understood by the canvas.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyReturn    = "Return"
	KeyEscape    = "Escape"
	KeyPlus      = "+"
	KeyEqual     = "="
	KeyMinus     = "-"
	KeyZero      = "0"
	KeyC         = "c"
	KeyX         = "x"
	KeyV         = "v"
)

// Event is one logical input event. Pointer positions are in screen
// coordinates.
type Event struct {
	Kind   EventKind    `json:"kind"`
	Pos    models.Point `json:"pos"`
	Button Button       `json:"button,omitempty"`
	Device Device       `json:"device,omitempty"`
	Shift  bool         `json:"shift,omitempty"`
	Ctrl   bool         `json:"ctrl,omitempty"`
	Meta   bool         `json:"meta,omitempty"`
	Key    string       `json:"key,omitempty"`
	// Delta is the wheel delta for EventWheel.
	Delta models.Point `json:"delta"`
	// Scale is the cumulative pinch factor for EventPinch.
	Scale float64 `json:"scale,omitempty"`
	Text  string  `json:"text,omitempty"`
	// Size is the viewport size for EventResize.
	Size models.Point `json:"size"`
	// Synthesized marks a mouse event the platform derived from a stylus
	// press.
	Synthesized bool      `json:"synthesized,omitempty"`
	Time        time.Time `json:"time"`
}

// Command reports whether Ctrl or Meta is held.
func (e Event) Command() bool {
	return e.Ctrl || e.Meta
}

// Coalescer merges mouse and stylus input into one stream. Mouse events the
// platform synthesized from stylus presses are dropped, and a second primary
// stylus press close in time and space to the previous one becomes an
// EventActivate.
type Coalescer struct {
	interval time.Duration
	distance float64

	lastTap time.Time
	lastPos models.Point
	armed   bool
}

// NewCoalescer returns a coalescer using the given double-tap window and
// maximum manhattan distance in screen pixels.
func NewCoalescer(interval time.Duration, distance float64) *Coalescer {
	return &Coalescer{interval: interval, distance: distance}
}

// Filter returns the logical event for ev, or false when ev must be dropped.
func (c *Coalescer) Filter(ev Event) (Event, bool) {
	if ev.Synthesized && ev.Device != DeviceStylus {
		return Event{}, false
	}
	if ev.Kind != EventPointerDown || ev.Device != DeviceStylus || ev.Button != ButtonPrimary {
		return ev, true
	}

	if c.armed &&
		ev.Time.Sub(c.lastTap) < c.interval &&
		ev.Pos.Sub(c.lastPos).ManhattanLength() < c.distance {
		c.armed = false
		ev.Kind = EventActivate
		return ev, true
	}
	c.armed = true
	c.lastTap = ev.Time
	c.lastPos = ev.Pos
	return ev, true
}
