package events

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// ErrBufferFull is returned when the broadcast queue cannot take a message
var ErrBufferFull = errors.New("event broadcast buffer full")

// Message types
const (
	MessageTypeReportRun = "report.run"
)

// Message is pushed to every subscriber as JSON
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans report events out to websocket subscribers
type Hub struct {
	clients    map[*client]struct{}
	mu         sync.RWMutex
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// NewHub creates a hub and starts its dispatch loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
	go h.run()
	return h
}

// RegisterRoutes registers the event stream route
func (h *Hub) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/reports/events", h.handleStream)
}

// handleStream handles GET /api/v1/reports/events
func (h *Hub) handleStream(c *gin.Context) {
	if err := h.Serve(c.Writer, c.Request); err != nil {
		h.logger.Warn("Failed to open event stream", zap.Error(err))
	}
}

// Serve upgrades the request and subscribes the connection
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return fmt.Errorf("event hub closed")
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Publish queues msg for every subscriber without blocking
func (h *Hub) Publish(msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Count returns the number of subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and stops the dispatch loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.stop)
		<-h.done
	})
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("Event subscriber connected", zap.String("id", c.id))

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			for c := range h.snapshot() {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
				}
			}

		case <-h.stop:
			for c := range h.snapshot() {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) snapshot() map[*client]struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[*client]struct{}, len(h.clients))
	for c := range h.clients {
		out[c] = struct{}{}
	}
	return out
}

// drop is only called from run, which owns closing send channels
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("Event subscriber disconnected", zap.String("id", c.id))
	}
}

// readPump discards client frames and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Event subscriber read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
