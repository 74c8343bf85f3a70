// Package monitor streams played frames to websocket clients.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const writeWait = 2 * time.Second

// Topology is the first message on every frame stream.
type Topology struct {
	Type    string `json:"type"`
	NumLEDs int    `json:"num_leds"`
	FPS     int    `json:"fps"`
}

// Frame is one played frame. GRB is base64 in JSON.
type Frame struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id"`
	Index int    `json:"index"`
	GRB   []byte `json:"grb"`
}

// Health is served on /health.
type Health struct {
	State   string `json:"state"`
	NumLEDs int    `json:"num_leds"`
	FPS     int    `json:"fps"`
	Frames  uint64 `json:"frames"`
	Clients int    `json:"clients"`
}

// Hub fans frames out to websocket clients at no more than the limiter
// rate. Publish never blocks, frames are dropped when clients fall behind.
type Hub struct {
	numLEDs int
	fps     int
	status  func() string

	limiter *rate.Limiter
	queue   chan any

	frames atomic.Uint64

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewHub builds a hub for a string of numLEDs played at fps. status
// reports the animation state for /health and may be nil.
func NewHub(numLEDs, fps int, maxFPS float64, status func() string) *Hub {
	if maxFPS <= 0 {
		maxFPS = float64(fps)
	}
	return &Hub{
		numLEDs: numLEDs,
		fps:     fps,
		status:  status,
		limiter: rate.NewLimiter(rate.Limit(maxFPS), 1),
		queue:   make(chan any, 4),
		clients: map[*websocket.Conn]bool{},
	}
}

// Publish matches animation.Hooks.OnFrame.
func (h *Hub) Publish(index int, grb []byte) {
	id := h.frames.Add(1)

	if !h.limiter.Allow() {
		return
	}
	f := Frame{Type: "frame", ID: id, Index: index, GRB: append([]byte(nil), grb...)}
	select {
	case h.queue <- f:
	default:
	}
}

// Run broadcasts queued frames until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.queue:
			h.broadcast(m)
		}
	}
}

func (h *Hub) broadcast(m any) {
	b, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Msg("monitor: marshal message")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Str("remote", c.RemoteAddr().String()).Msg("monitor: write failed")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// Handler routes /ws and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// topology goes out before the conn is visible to broadcast
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Topology{Type: "topology", NumLEDs: h.numLEDs, FPS: h.fps}); err != nil {
		conn.Close()
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("monitor: client connected")

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	hs := Health{
		State:   "unknown",
		NumLEDs: h.numLEDs,
		FPS:     h.fps,
		Frames:  h.frames.Load(),
		Clients: len(h.clients),
	}
	h.mu.RUnlock()
	if h.status != nil {
		hs.State = h.status()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(hs)
}
