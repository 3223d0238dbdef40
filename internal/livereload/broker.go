// Package livereload watches the served directory and tells connected
// browsers to reload when files change. A small client script, injected into
// served HTML documents while live reload is enabled, keeps a WebSocket open
// to the broker; the watcher feeds the broker change notifications.
package livereload

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// EndpointPath is the URL path the client script connects to.
const EndpointPath = "/_easel/reload"

// MessageType represents the type of reload message.
type MessageType string

const (
	TypeReload MessageType = "reload"
	TypeCSS    MessageType = "css"
)

// Message is sent to browsers via WebSocket.
type Message struct {
	Type MessageType `json:"type"`
	File string      `json:"file,omitempty"`
}

// Broker manages WebSocket connections for live reload.
type Broker struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewBroker creates a new reload broker.
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local dev tool, any origin may connect
			},
		},
	}
}

// ServeHTTP handles the WebSocket upgrade and holds the connection open
// until the client disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// NotifyReload sends a full page reload message to all clients.
func (b *Broker) NotifyReload() {
	b.broadcast(Message{Type: TypeReload})
}

// NotifyCSS sends a CSS-only reload message to all clients.
func (b *Broker) NotifyCSS(file string) {
	b.broadcast(Message{Type: TypeCSS, File: file})
}

// broadcast sends a message to all connected clients.
func (b *Broker) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	b.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			b.mu.Lock()
			delete(b.clients, client)
			b.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close closes all client connections.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
}
