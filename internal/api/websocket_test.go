package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forgepilot/reviewloop/internal/events"
)

func TestWSHandler_SubscribeReceivesPublishedEvent(t *testing.T) {
	t.Parallel()

	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.WriteJSON(WSMessage{Type: "subscribe", RunID: "run-1"}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack map[string]any
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read subscribe ack: %v", err)
	}
	if ack["type"] != "subscribed" {
		t.Fatalf("ack type = %v, want subscribed", ack["type"])
	}

	pub.Publish(events.NewEvent(events.EventRunStarted, "run-1", events.RunStartedData{CommitID: "abc"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg["type"] != "event" || msg["run_id"] != "run-1" {
		t.Fatalf("unexpected event envelope: %+v", msg)
	}
}

func TestWSHandler_SubscribeRequiresRunID(t *testing.T) {
	t.Parallel()

	pub := events.NewMemoryPublisher()
	handler := NewWSHandler(pub, nil)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.WriteJSON(WSMessage{Type: "subscribe"}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error response: %v", err)
	}
	if msg["type"] != "error" {
		t.Fatalf("type = %v, want error", msg["type"])
	}
}
