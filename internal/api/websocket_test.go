package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lanternworks/storyloom/internal/events"
)

func dialWS(t *testing.T, srv *Server) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(srv.Routes())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestWebSocketSendsRecentEventsOnConnect(t *testing.T) {
	srv, eng := testServer(t)
	eng.StartGame(time.Now())

	conn, cleanup := dialWS(t, srv)
	defer cleanup()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		seen[e.Name] = true
	}
	if !seen["game.started"] {
		t.Errorf("recent events missing game.started: %v", seen)
	}
}

func TestWebSocketStreamsLiveEvents(t *testing.T) {
	srv, eng := testServer(t)

	conn, cleanup := dialWS(t, srv)
	defer cleanup()

	eng.StartGame(time.Now())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Name == "dialogue.line" {
			return
		}
	}
}

func TestWebSocketAcceptsInputMessages(t *testing.T) {
	srv, eng := testServer(t)
	eng.StartGame(time.Now())

	conn, cleanup := dialWS(t, srv)
	defer cleanup()

	msg := wsInput{Signal: "advance"}
	data, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The reader goroutine handles input asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if eng.Status().Scene == "a" && countAdvances(eng) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("input message never reached the engine")
}

func countAdvances(eng interface{ Recent(int) []events.Event }) int {
	n := 0
	for _, e := range eng.Recent(200) {
		if e.Name == "dialogue.completed" {
			n++
		}
	}
	return n
}
