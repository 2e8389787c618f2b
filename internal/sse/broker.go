// Package sse implements a Server-Sent Events broker for live project and
// canvas updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/dou/internal/models"
)

// Event types sent to clients.
const (
	TypeNodeFocused    = "node.focused"
	TypeCanvasUpdated  = "canvas.updated"
	TypePathsUpdated   = "paths.updated"
	TypeProjectCreated = "project.created"
	TypeProjectUpdated = "project.updated"
	TypeProjectDeleted = "project.deleted"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// changeReq is a change that may also produce a throttled paths.updated.
type changeReq struct {
	event   Event
	project string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the per-project paths
// throttle. Public methods talk to the loop over channels.
type Broker struct {
	pathsMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits paths.updated at most once per
// pathsThrottle for each project.
func NewBroker(pathsThrottle time.Duration) *Broker {
	if pathsThrottle <= 0 {
		pathsThrottle = 2 * time.Second
	}

	b := &Broker{
		pathsMin:      pathsThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastPaths := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			broadcast(req.event)

			now := time.Now()
			if now.Sub(lastPaths[req.project]) >= b.pathsMin {
				lastPaths[req.project] = now
				broadcast(Event{Type: TypePathsUpdated, Data: map[string]string{"project": req.project}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

func (b *Broker) change(project string, event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{event: event, project: project}:
	case <-b.stopped:
	}
}

// PublishProjectEvent publishes a project file change ("created", "updated"
// or "deleted") and a throttled paths.updated.
func (b *Broker) PublishProjectEvent(kind, path string) {
	var typ string
	switch kind {
	case "created":
		typ = TypeProjectCreated
	case "updated":
		typ = TypeProjectUpdated
	case "deleted":
		typ = TypeProjectDeleted
	default:
		return
	}
	b.change(path, Event{Type: typ, Data: map[string]string{"project": path}})
}

// NodeFocused publishes node.focused with the focused node.
func (b *Broker) NodeFocused(project string, n *models.Node) {
	b.Publish(Event{Type: TypeNodeFocused, Data: map[string]any{"project": project, "node": n}})
}

// CanvasChanged publishes canvas.updated and a throttled paths.updated.
func (b *Broker) CanvasChanged(project string, revision uint64) {
	b.change(project, Event{Type: TypeCanvasUpdated, Data: map[string]any{"project": project, "revision": revision}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
