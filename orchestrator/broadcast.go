package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope every broadcast message carries:
// {type=consensus, data=consensus}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebsocketBroadcaster fans Publish calls out to every connected
// websocket client, best-effort: clients are written to one after
// another, and a client whose write fails is dropped and closed.
type WebsocketBroadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewWebsocketBroadcaster builds an empty broadcaster.
func NewWebsocketBroadcaster() *WebsocketBroadcaster {
	return &WebsocketBroadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket connection and
// registers it as a broadcast target until it disconnects.
func (b *WebsocketBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.register(conn)
	defer b.unregister(conn)

	// Drain incoming frames so the connection's read deadline never
	// trips; clients never send payloads on this stream.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *WebsocketBroadcaster) register(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[conn] = struct{}{}
}

func (b *WebsocketBroadcaster) unregister(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
	conn.Close()
}

// Publish marshals (topic, payload) as an Event and writes it to every
// connected client, dropping (and closing) any client whose write
// fails rather than letting one bad connection block the rest.
func (b *WebsocketBroadcaster) Publish(topic string, payload any) error {
	msg, err := json.Marshal(Event{Type: topic, Data: payload})
	if err != nil {
		return fmt.Errorf("broadcast: marshal event: %w", err)
	}

	b.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	var failed []*websocket.Conn
	for _, c := range targets {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		b.unregister(c)
	}
	return nil
}

var _ Sink = (*WebsocketBroadcaster)(nil)
