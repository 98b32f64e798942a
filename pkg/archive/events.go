package archive

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/odvcencio/beacon/pkg/observability"
	"github.com/odvcencio/beacon/pkg/telemetry"
)

const (
	maxEventStreamClients = 128
	maxWSReadBytes        = 64 << 10

	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsPingInterval   = 54 * time.Second
	clientSendBuffer = 100
)

// eventStream fans telemetry events out to connected WebSocket clients.
type eventStream struct {
	hub    *telemetry.Hub
	logger *observability.Logger

	mu      sync.RWMutex
	clients map[*streamClient]bool

	upgrader websocket.Upgrader
	stop     chan struct{}
	stopOnce sync.Once
}

type streamClient struct {
	conn    *websocket.Conn
	send    chan telemetry.Event
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func newEventStream(hub *telemetry.Hub, logger *observability.Logger) *eventStream {
	s := &eventStream{
		hub:     hub,
		logger:  logger,
		clients: make(map[*streamClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Localhost-oriented service; the bind address is the access
			// control here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		stop: make(chan struct{}),
	}

	if hub != nil {
		events, unsubscribe := hub.Subscribe()
		go s.forward(events, unsubscribe)
	}

	return s
}

// forward pumps hub events to all connected clients.
func (s *eventStream) forward(events <-chan telemetry.Event, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.broadcast(event)
		}
	}
}

func (s *eventStream) broadcast(event telemetry.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- event:
		default:
			// Channel full, skip (backpressure).
			s.logger.Warn("event stream backpressure, dropping event",
				slog.String("event_type", string(event.Type)),
			)
		}
	}
}

// handleWebSocket upgrades the connection and streams events until the
// client goes away.
func (s *eventStream) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.clientCount() >= maxEventStreamClients {
		respondError(w, http.StatusServiceUnavailable, nil)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade event stream connection", slog.String("error", err.Error()))
		return
	}

	// Background context: the request context is canceled after the upgrade.
	ctx, cancel := context.WithCancel(context.Background())
	client := &streamClient{
		conn:   conn,
		send:   make(chan telemetry.Event, clientSendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	observability.ActiveEventStreamClients.Inc()
	s.logger.Info("event stream client connected", slog.String("remote_addr", r.RemoteAddr))

	go client.writePump()
	go s.readPump(client)
}

// readPump drains the client connection. Incoming payloads are discarded;
// reading only services pong frames and detects the close.
func (s *eventStream) readPump(client *streamClient) {
	defer func() {
		s.removeClient(client)
		client.writeMu.Lock()
		_ = client.conn.Close()
		client.writeMu.Unlock()
		observability.ActiveEventStreamClients.Dec()
	}()

	client.conn.SetReadLimit(maxWSReadBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Error("event stream read error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (client *streamClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.cancel()
	}()

	for {
		select {
		case event, ok := <-client.send:
			if !ok {
				client.writeMu.Lock()
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				client.writeMu.Unlock()
				return
			}

			client.writeMu.Lock()
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := client.conn.WriteJSON(event)
			client.writeMu.Unlock()
			if err != nil {
				return
			}

		case <-ticker.C:
			client.writeMu.Lock()
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := client.conn.WriteMessage(websocket.PingMessage, nil)
			client.writeMu.Unlock()
			if err != nil {
				return
			}

		case <-client.ctx.Done():
			return
		}
	}
}

func (s *eventStream) removeClient(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.send)
	}
}

func (s *eventStream) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// shutdown stops forwarding and closes every client connection.
func (s *eventStream) shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.cancel()
		_ = client.conn.Close()
		close(client.send)
	}
	s.clients = make(map[*streamClient]bool)
}
