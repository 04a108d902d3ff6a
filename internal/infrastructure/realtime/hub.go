// Package realtime pushes approval events to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/domain/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// ErrHubStopped is returned when publishing to a stopped hub
var ErrHubStopped = errors.New("realtime hub stopped")

// Message is the JSON pushed to clients for every approval event
type Message struct {
	Type      string    `json:"type"`
	RecordID  string    `json:"recordId"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// client is a single connected websocket peer
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done <-chan struct{}
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	connected atomic.Int64

	mu      sync.RWMutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// NewHub creates a new hub. allowedOrigins empty accepts every origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// Name implements worker.Worker
func (h *Hub) Name() string {
	return "realtime-hub"
}

// Start runs the dispatch loop until ctx is cancelled or Stop is called
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return errors.New("realtime hub already running")
	}
	h.running = true
	h.done = make(chan struct{})
	h.stopped = make(chan struct{})
	done, stopped := h.done, h.stopped
	h.mu.Unlock()

	go h.run(ctx, done, stopped)
	return nil
}

// Stop closes every client connection and ends the dispatch loop
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	close(h.done)
	stopped := h.stopped
	h.mu.Unlock()

	<-stopped
	return nil
}

func (h *Hub) run(ctx context.Context, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			if h.running {
				h.running = false
				close(h.done)
			}
			h.mu.Unlock()
			return
		case <-done:
			return
		case c := <-h.register:
			h.clients[c] = true
			h.connected.Store(int64(len(h.clients)))
			h.logger.Debug("Websocket client connected", zap.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.connected.Store(int64(len(h.clients)))
				h.logger.Debug("Websocket client disconnected", zap.Int("clients", len(h.clients)))
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.connected.Store(int64(len(h.clients)))
		}
	}
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.connected.Store(0)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Publish queues a message for every connected client
func (h *Hub) Publish(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	running, done := h.running, h.done
	h.mu.RUnlock()
	if !running {
		return ErrHubStopped
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-done:
		return ErrHubStopped
	}
}

// HandleEvent broadcasts a dispatched event. A stopped hub drops it.
func (h *Hub) HandleEvent(ctx context.Context, evt *event.Event) error {
	msg := Message{
		Type:      evt.Type.String(),
		RecordID:  evt.RecordID,
		Status:    evt.GetPayloadString(event.KeyStatus),
		Timestamp: evt.Timestamp,
	}
	if err := h.Publish(msg); err != nil && !errors.Is(err, ErrHubStopped) {
		return err
	}
	return nil
}

// Register subscribes the hub to every event of d
func (h *Hub) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeAny, "realtime", h.HandleEvent)
}

// ServeHTTP upgrades the request and attaches the peer to the hub.
// Authentication happens before the request reaches the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	running, done := h.running, h.done
	h.mu.RUnlock()
	if !running {
		http.Error(w, ErrHubStopped.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), done: done}
	select {
	case h.register <- c:
	case <-done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// writePump writes hub messages and keepalive pings to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("Websocket read error", zap.Error(err))
			}
			return
		}
	}
}
