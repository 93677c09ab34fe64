// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package live pushes board events to connected displays over websockets.
package live

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/now-showing/models"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// A display must answer a ping before this passes or it is dropped
	pongWait = 2 * pingPeriod
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays are served from arbitrary origins (projector laptops, kiosks)
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub is an events.Sink that broadcasts to every connected display.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	pingPeriod time.Duration
	pongWait   time.Duration
}

type client struct {
	conn *websocket.Conn
	send chan models.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
}

// Publish queues ev for every client; a client whose buffer is full is dropped.
func (h *Hub) Publish(ev models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slog.Warn("dropping slow display", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected displays.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles GET /board/live
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan models.Event, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("display connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards inbound frames and unregisters on close or when pongs
// stop arriving
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
