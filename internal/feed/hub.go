// Package feed streams catalog activities to WebSocket clients.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

const (
	defaultBuffer  = 16
	defaultBacklog = 10
	writeTimeout   = 5 * time.Second
)

// Event types sent to clients.
const (
	EventRecent   = "recent"
	EventActivity = "activity"
)

// Event is one frame sent to a client. A "recent" event carries the backlog
// oldest first; an "activity" event carries one new activity.
type Event struct {
	Type       string             `json:"type"`
	Activity   *catalog.Activity  `json:"activity,omitempty"`
	Activities []catalog.Activity `json:"activities,omitempty"`
}

// Source supplies the backlog a new client starts with.
type Source interface {
	RecentActivities(limit int) []catalog.Activity
}

// Options tunes a Hub.
type Options struct {
	// Buffer is the number of pending events per client before the client
	// is dropped as too slow. Defaults to 16.
	Buffer int
	// Backlog is the number of recent activities sent on connect. Defaults
	// to 10.
	Backlog int
	// OriginPatterns are the cross-origin hosts allowed to connect.
	OriginPatterns []string
}

// Hub fans activities out to every connected client.
type Hub struct {
	src  Source
	opts Options

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	events    chan Event
	closeSlow func()
}

// NewHub creates a hub whose clients start from src's recent activities.
func NewHub(src Source, opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Backlog <= 0 {
		opts.Backlog = defaultBacklog
	}
	return &Hub{src: src, opts: opts, clients: make(map[*client]struct{})}
}

// Publish queues a for every client. Clients whose buffer is full are
// disconnected.
func (h *Hub) Publish(a catalog.Activity) {
	ev := Event{Type: EventActivity, Activity: &a}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.events <- ev:
		default:
			delete(h.clients, c)
			go c.closeSlow()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.events)
	}
}

// ServeHTTP upgrades the request, sends the recent activities and then
// streams new ones until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.opts.OriginPatterns})
	if err != nil {
		slog.Warn("activity feed upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	c := &client{
		events: make(chan Event, h.opts.Buffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with activities")
		},
	}
	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(c)

	recent := h.src.RecentActivities(h.opts.Backlog)
	slices.Reverse(recent)
	if err := write(ctx, conn, Event{Type: EventRecent, Activities: recent}); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := write(ctx, conn, ev); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Debug("activity feed write failed", "error", err)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func write(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
