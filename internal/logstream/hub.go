// Package logstream pushes access-log events to websocket clients.
//
// A Hub is registered as an accesslog.Observer. Observer callbacks only
// enqueue; a single Run goroutine performs all network writes, so a slow
// client can never delay the request whose audit line produced the event.
// Recent events are kept in a ring buffer and replayed to new clients.
package logstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
)

// DefaultHistory is the number of recent events replayed to new clients.
const DefaultHistory = 100

const writeTimeout = 10 * time.Second

// EventType distinguishes stream events.
type EventType string

const (
	// EventRecorded reports a record appended to the access log.
	EventRecorded EventType = "recorded"
	// EventFailed reports an append that could not be written.
	EventFailed EventType = "failed"
)

// Event is the JSON message sent to clients.
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp string            `json:"timestamp"`
	Record    *accesslog.Record `json:"record,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Hub fans access-log events out to websocket clients.
//
// Thread-safety model:
//   - Recorded, Failed, ServeHTTP, Close: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Hub struct {
	queue    *eventQueue
	upgrader websocket.Upgrader
	clock    accesslog.Clock
	logger   *slog.Logger

	// mu guards clients and history, and serializes every write to a
	// client connection.
	mu           sync.Mutex
	clients      map[*websocket.Conn]bool
	history      []Event
	historyIndex int
	historyCount int
}

// Option configures a Hub.
type Option func(*Hub)

// WithHistory sets the ring buffer size. Zero disables replay.
func WithHistory(n int) Option {
	return func(h *Hub) {
		if n < 0 {
			n = 0
		}
		h.history = make([]Event, n)
	}
}

// WithClock sets the clock used to stamp failure events.
func WithClock(c accesslog.Clock) Option {
	return func(h *Hub) {
		h.clock = c
	}
}

// WithLogger sets the process logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// NewHub creates a Hub. Call Run to start delivering events.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		queue:   newEventQueue(),
		clients: make(map[*websocket.Conn]bool),
		history: make([]Event, DefaultHistory),
		clock:   accesslog.SystemClock{},
		logger:  slog.Default(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Recorded implements accesslog.Observer.
func (h *Hub) Recorded(r accesslog.Record) {
	rec := r
	h.queue.Enqueue(Event{Type: EventRecorded, Timestamp: r.Timestamp, Record: &rec})
}

// Failed implements accesslog.Observer.
func (h *Hub) Failed(err error) {
	h.queue.Enqueue(Event{
		Type:      EventFailed,
		Timestamp: accesslog.FormatTimestamp(h.clock.Now()),
		Error:     err.Error(),
	})
}

// Run delivers queued events until ctx is cancelled or Close is called.
// All client connections are closed on return.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Debug("log stream starting")
	defer h.closeClients()

	for {
		if ev, ok := h.queue.TryDequeue(); ok {
			h.broadcast(ev)
			continue
		}

		select {
		case <-ctx.Done():
			h.logger.Debug("log stream stopping: context cancelled")
			h.queue.Close()
			return ctx.Err()

		case <-h.queue.Wait():
			if h.queue.Drained() {
				h.logger.Debug("log stream stopping: queue closed")
				return nil
			}
		}
	}
}

// Close stops Run once the queued events have been delivered.
func (h *Hub) Close() {
	h.queue.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket, replays recent events and
// subscribes the client to new ones.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.mu.Lock()
	ok := h.sendHistory(conn)
	if ok {
		h.clients[conn] = true
	}
	h.mu.Unlock()
	if !ok {
		conn.Close()
		return
	}
	h.logger.Debug("log stream client connected", "remote", r.RemoteAddr)

	// Clients only listen; reading surfaces close frames and broken
	// connections.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// broadcast records ev in the history and writes it to every client.
// Called only from Run.
func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode stream event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) > 0 {
		h.history[h.historyIndex] = ev
		h.historyIndex = (h.historyIndex + 1) % len(h.history)
		if h.historyCount < len(h.history) {
			h.historyCount++
		}
	}

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// sendHistory writes buffered events oldest first. Callers hold h.mu.
func (h *Hub) sendHistory(conn *websocket.Conn) bool {
	n := len(h.history)
	start := (h.historyIndex - h.historyCount + n) % max(n, 1)
	for i := 0; i < h.historyCount; i++ {
		data, err := json.Marshal(h.history[(start+i)%n])
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return false
		}
	}
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}
