// Package stream serves a read-only websocket feed of agent positions for
// external viewers.
package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/evogrid/engine"
	"github.com/pthm-cable/evogrid/population"
)

const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Hello is sent once to every client on connect.
type Hello struct {
	Type   string `json:"type"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
}

// Agent is one living agent in a frame.
type Agent struct {
	Index int   `json:"i"`
	X     int   `json:"x"`
	Y     int   `json:"y"`
	R     uint8 `json:"r"`
	G     uint8 `json:"g"`
	B     uint8 `json:"b"`
}

// Frame is the state of the living population at one step.
type Frame struct {
	Type       string  `json:"type"`
	Generation int     `json:"gen"`
	Step       int     `json:"step"`
	Agents     []Agent `json:"agents"`
}

// NewFrame captures the living agents of pop. dst is reused when it has
// capacity.
func NewFrame(dst []Agent, pop *population.Population, clock engine.Clock) Frame {
	dst = dst[:0]
	for i := 0; i < pop.Len(); i++ {
		if !pop.Alive(i) {
			continue
		}
		m := pop.Movement(i)
		c := pop.Misc(i).Color
		dst = append(dst, Agent{Index: i, X: m.X, Y: m.Y, R: c.R, G: c.G, B: c.B})
	}
	return Frame{Type: "frame", Generation: clock.Generation, Step: clock.Step, Agents: dst}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub fans frames out to every connected websocket client.
type Hub struct {
	width, height int

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub for a grid of the given size.
func NewHub(width, height int) *Hub {
	return &Hub{
		width:   width,
		height:  height,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until
// it disconnects. Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	if err := c.send(Hello{Type: "config", Width: h.width, Height: h.height}); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("stream client connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Broadcast sends frame to every client, dropping clients that fail.
// It returns the number of clients that received it.
func (h *Hub) Broadcast(frame Frame) int {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range list {
		if err := c.send(frame); err != nil {
			slog.Debug("stream client send failed", "error", err)
			h.drop(c)
			continue
		}
		sent++
	}
	return sent
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
}
