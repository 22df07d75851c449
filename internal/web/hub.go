package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/device"
	"github.com/sweeney/alarm-clock/internal/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// HubConfig sizes the hub queues. Zero values use defaults.
type HubConfig struct {
	// SendBuf is the per-client outbound queue size.
	SendBuf int
	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int
}

// Hub fans rendered faces out to websocket clients. It is a device.Sink:
// Show never blocks the tick loop, and only face changes are broadcast.
// Slow clients are disconnected when their send buffer fills.
type Hub struct {
	log *zap.SugaredLogger

	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	// done is closed when Run returns.
	done chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	lastKey frameKey

	sendBuf int
}

type frameKey struct {
	state string
	face  string
	blink uint8
}

// NewHub constructs a hub. Call Run to start it.
func NewHub(ctx context.Context, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}
	return &Hub{
		log:        logger.FromContext(logger.WithName(ctx, "ws")),
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *client, 64),
		unregister: make(chan *client, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects every client.
// Clients that connect or drop after Run returns are closed without waiting.
func (h *Hub) Run(ctx context.Context) {
	h.log.Debugw("hub starting")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			last := h.last
			h.mu.Unlock()
			h.log.Infow("client connected", "remote_addr", c.remoteAddr, "clients", n)
			if last != nil {
				h.enqueue(c, last)
			}

		case c := <-h.unregister:
			h.remove(c, "unregister")

		case msg := <-h.broadcast:
			h.mu.Lock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.Unlock()
			for _, c := range targets {
				h.enqueue(c, msg)
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) enqueue(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.remove(c, "slow_client")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		h.log.Infow("client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

// Show broadcasts f when the face differs from the last one sent.
func (h *Hub) Show(f device.Frame) {
	key := frameKey{state: f.View.State.String(), face: f.Face.Text(), blink: f.Face.Blink}

	h.mu.Lock()
	if h.last != nil && key == h.lastKey {
		h.mu.Unlock()
		return
	}
	msg, err := json.Marshal(newFrameMessage(f))
	if err != nil {
		h.mu.Unlock()
		h.log.Warnw("marshal frame", "error", err)
		return
	}
	h.last = msg
	h.lastKey = key
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warnw("broadcast queue full, dropping frame", "bytes", len(msg))
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request and registers the client. The current face
// is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		remoteAddr: r.RemoteAddr,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		h.log.Debugw("hub stopped, rejecting client", "remote_addr", c.remoteAddr)
		return
	}

	// The request context ends when this handler returns; the pumps live
	// until the connection fails or the hub closes it.
	go c.writePump()
	go c.readPump()
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards incoming messages and unregisters the client on error.
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("read", err)
			select {
			case c.hub.unregister <- c:
			case <-c.hub.done:
			}
			return
		}
	}
}

func (c *client) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		c.hub.log.Debugw("client closed", "remote_addr", c.remoteAddr, "op", op, "code", ce.Code, "reason", ce.Text)
		return
	}
	c.hub.log.Debugw("client pump exiting", "remote_addr", c.remoteAddr, "op", op, "error", err)
}
