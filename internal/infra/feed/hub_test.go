package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nftmarket/internal/event"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Registration happens after the handshake; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.subscribers)
		hub.mu.Unlock()
		if n > 0 {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	conn := dialTestHub(t, hub)

	ev := &event.MarketEvent{
		Seq:      1,
		Type:     event.TypeListed,
		Contract: common.HexToAddress("0x0000000000000000000000000000000000005001"),
		TokenID:  0,
		Price:    "20",
	}
	hub.Broadcast(ev)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var got event.MarketEvent
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Seq != 1 || got.Type != event.TypeListed || got.Price != "20" {
		t.Errorf("unexpected event over the wire: %+v", got)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	// Must not block or panic with nobody listening.
	hub.Broadcast(&event.MarketEvent{Seq: 1, Type: event.TypeListed})
}
