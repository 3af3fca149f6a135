package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lugegod/LugeRelay/internal/infrastructure/config"
	"github.com/lugegod/LugeRelay/internal/infrastructure/logging"
)

func wsTestConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		MaxMessageSize: 4096,
		PingInterval:   30,
		PongTimeout:    60,
	}
}

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	hub := NewHub(wsTestConfig(), logger)
	s := &Server{logger: logger, hub: hub, wsCfg: wsTestConfig()}

	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func TestWebSocketSubscribeAndBroadcast(t *testing.T) {
	hub, conn := dialTestHub(t)

	//nolint:errcheck // Read deadline on a test connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{"sequence.status"}},
	}); err != nil {
		t.Fatalf("writing subscribe: %v", err)
	}

	var resp WSMessage
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("reading subscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "1" {
		t.Fatalf("subscribe response = %+v", resp)
	}

	hub.Broadcast("sequence.status", map[string]string{"phase": "delay1"})

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != "sequence.status" {
		t.Errorf("broadcast message = %+v", event)
	}
}

func TestWebSocketBroadcastSkipsUnsubscribed(t *testing.T) {
	hub, conn := dialTestHub(t)

	// Never subscribed; a broadcast must not reach this client.
	hub.Broadcast("sequence.status", map[string]string{"phase": "delay1"})

	//nolint:errcheck // Short deadline proves no message arrives
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("unsubscribed client received %+v", msg)
	}
}

func TestWebSocketPing(t *testing.T) {
	_, conn := dialTestHub(t)

	//nolint:errcheck // Read deadline on a test connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("writing ping: %v", err)
	}

	var resp WSMessage
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if resp.Type != WSTypePong || resp.ID != "p1" {
		t.Errorf("pong = %+v", resp)
	}
}

func TestHubClientCount(t *testing.T) {
	hub, _ := dialTestHub(t)

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}
}
