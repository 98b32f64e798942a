package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/odvcencio/beacon/pkg/telemetry"
)

func TestEventStreamDeliversEvents(t *testing.T) {
	srv, ts, hub := newTestServer(t, Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial event stream: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitForClients(t, srv, 1)

	hub.Publish(telemetry.Event{
		Type:   telemetry.EventArchiveSaved,
		FlowID: "01arz3ndektsv4rrffq69g5fav",
		Data:   map[string]any{"name": "Checkout"},
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var event telemetry.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != telemetry.EventArchiveSaved {
		t.Errorf("expected archive.saved, got %s", event.Type)
	}
	if event.FlowID != "01arz3ndektsv4rrffq69g5fav" {
		t.Errorf("unexpected flow id %q", event.FlowID)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected hub to stamp the event timestamp")
	}
}

func TestEventStreamRemovesClientOnDisconnect(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial event stream: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	waitForClients(t, srv, 1)
	conn.Close()
	waitForClients(t, srv, 0)
}

func TestEventStreamShutdownClosesClients(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial event stream: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitForClients(t, srv, 1)
	srv.events.shutdown()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read to fail after shutdown")
	}
	waitForClients(t, srv, 0)
}

func waitForClients(t *testing.T, srv *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.events.clientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d event stream client(s), have %d", want, srv.events.clientCount())
}
