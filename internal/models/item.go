package models

// ItemKind discriminates the canvas item variant.
type ItemKind int

const (
	ItemNode ItemKind = iota + 1
	ItemConnection
)

func (k ItemKind) String() string {
	switch k {
	case ItemNode:
		return "node"
	case ItemConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Item is a canvas item in paint order. Exactly one of Node or Connection is
// set, selected by Kind.
type Item struct {
	Kind       ItemKind
	Node       *Node
	Connection *Connection
}
