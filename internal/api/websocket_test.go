package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quadjournal/quad/internal/events"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readJSON(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse message: %v", err)
	}
	return resp
}

func TestWSHandler_Connect(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ws := dialWS(t, ts)
	if err := ws.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Errorf("failed to send message: %v", err)
	}
	if resp := readJSON(t, ws); resp["type"] != "pong" {
		t.Errorf("expected pong, got %v", resp["type"])
	}

	if handler.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", handler.ConnectionCount())
	}
}

func TestWSHandler_SubscribeAndForward(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ws := dialWS(t, ts)
	if err := ws.WriteJSON(WSMessage{Type: "subscribe", Topic: "tasks"}); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}

	resp := readJSON(t, ws)
	if resp["type"] != "subscribed" {
		t.Fatalf("expected type 'subscribed', got %v", resp["type"])
	}
	if resp["topic"] != "tasks" {
		t.Errorf("expected topic 'tasks', got %v", resp["topic"])
	}

	// Wait for the subscription to register, then publish.
	deadline := time.Now().Add(time.Second)
	for pub.SubscriberCount(events.TopicTasks) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	pub.Publish(events.NewEvent(events.EventTasksSaved, events.TopicTasks, map[string]int{"urgent-important": 2}))

	ev := readJSON(t, ws)
	if ev["type"] != "event" {
		t.Fatalf("expected type 'event', got %v", ev["type"])
	}
	if ev["event"] != string(events.EventTasksSaved) {
		t.Errorf("expected tasks_saved, got %v", ev["event"])
	}
}

func TestWSHandler_GlobalSubscription(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ws := dialWS(t, ts)
	if err := ws.WriteJSON(WSMessage{Type: "subscribe", Topic: "*"}); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}
	if resp := readJSON(t, ws); resp["type"] != "subscribed" {
		t.Fatalf("expected subscribed, got %v", resp["type"])
	}

	deadline := time.Now().Add(time.Second)
	for pub.SubscriberCount(events.GlobalTopic) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	pub.Publish(events.NewEvent(events.EventSettingsSaved, events.TopicSettings, nil))

	ev := readJSON(t, ws)
	if ev["event"] != string(events.EventSettingsSaved) {
		t.Errorf("expected settings_saved via global topic, got %v", ev["event"])
	}
}

func TestWSHandler_SubscribeRequiresTopic(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ws := dialWS(t, ts)
	if err := ws.WriteJSON(WSMessage{Type: "subscribe"}); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}
	if resp := readJSON(t, ws); resp["type"] != "error" {
		t.Errorf("expected error, got %v", resp["type"])
	}
}

func TestWSHandler_UnknownType(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ws := dialWS(t, ts)
	if err := ws.WriteJSON(WSMessage{Type: "bogus"}); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
	if resp := readJSON(t, ws); resp["type"] != "error" {
		t.Errorf("expected error, got %v", resp["type"])
	}
}

func TestWSHandler_Close(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	handler := NewWSHandler(pub, nil, nil)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	dialWS(t, ts)
	dialWS(t, ts)

	deadline := time.Now().Add(time.Second)
	for handler.ConnectionCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	handler.Close()
	if handler.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after close, got %d", handler.ConnectionCount())
	}
}
