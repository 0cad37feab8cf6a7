// Package feed pushes committed marketplace events to websocket subscribers.
// Delivery is best-effort: a slow subscriber is dropped, never waited on, so
// the engine's commit path cannot back up behind the network.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"nftmarket/internal/event"
	"nftmarket/internal/infra"

	"github.com/gorilla/websocket"
)

const subscriberBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is read-only public data; any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans committed events out to websocket subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Broadcast queues a committed event to every subscriber. Called from the
// engine's commit callback; must never block.
func (h *Hub) Broadcast(ev *event.MarketEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("feed: failed to marshal event", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			// Subscriber cannot keep up; cut it loose.
			h.dropLocked(sub)
		}
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed: upgrade failed", slog.Any("error", err))
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	infra.GlobalMetrics.IncrementSubscribers()

	go sub.writeLoop()
	go sub.readLoop(h)
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	h.dropLocked(sub)
	h.mu.Unlock()
}

// dropLocked removes and closes a subscriber. Caller holds h.mu.
func (h *Hub) dropLocked(sub *subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.send)
	infra.GlobalMetrics.DecrementSubscribers()
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		h.dropLocked(sub)
	}
}

func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for payload := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readLoop drains (and discards) client frames so pings and closes are
// processed; any read error unregisters the subscriber.
func (s *subscriber) readLoop(h *Hub) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			h.drop(s)
			return
		}
	}
}

// Serve runs the feed HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/events", hub)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		hub.Close()
		srv.Close()
	}()

	slog.Info("feed server listening", slog.String("addr", addr))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
