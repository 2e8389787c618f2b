package canvas

import "github.com/starford/dou/internal/models"

// Listener receives canvas notifications. Calls happen on the goroutine that
// drives the Controller; implementations must not call back into it.
type Listener interface {
	// NodeFocused fires whenever selection or edit focus moves to a node. The
	// node is a detached copy.
	NodeFocused(n *models.Node)
	// Repaint fires after any visible change.
	Repaint()
}

type nopListener struct{}

func (nopListener) NodeFocused(*models.Node) {}
func (nopListener) Repaint()                 {}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnNodeFocused func(n *models.Node)
	OnRepaint     func()
}

func (l ListenerFuncs) NodeFocused(n *models.Node) {
	if l.OnNodeFocused != nil {
		l.OnNodeFocused(n)
	}
}

func (l ListenerFuncs) Repaint() {
	if l.OnRepaint != nil {
		l.OnRepaint()
	}
}
