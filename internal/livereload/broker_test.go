package livereload

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialBroker(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", b.ClientCount(), want)
}

func TestBroker_NotifyReload(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	srv := httptest.NewServer(broker)
	defer srv.Close()

	conn := dialBroker(t, srv)
	defer conn.Close()
	waitForClients(t, broker, 1)

	broker.NotifyReload()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal %q: %v", data, err)
	}
	if msg.Type != TypeReload {
		t.Errorf("Type = %q, want %q", msg.Type, TypeReload)
	}
	if msg.File != "" {
		t.Errorf("File = %q, want empty", msg.File)
	}
}

func TestBroker_NotifyCSS(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	srv := httptest.NewServer(broker)
	defer srv.Close()

	conn := dialBroker(t, srv)
	defer conn.Close()
	waitForClients(t, broker, 1)

	broker.NotifyCSS("styles/main.css")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal %q: %v", data, err)
	}
	if msg.Type != TypeCSS {
		t.Errorf("Type = %q, want %q", msg.Type, TypeCSS)
	}
	if msg.File != "styles/main.css" {
		t.Errorf("File = %q, want %q", msg.File, "styles/main.css")
	}
}

func TestBroker_ClientCountAfterDisconnect(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	srv := httptest.NewServer(broker)
	defer srv.Close()

	conn := dialBroker(t, srv)
	waitForClients(t, broker, 1)

	conn.Close()
	waitForClients(t, broker, 0)
}

func TestBroker_BroadcastToMultipleClients(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	srv := httptest.NewServer(broker)
	defer srv.Close()

	a := dialBroker(t, srv)
	defer a.Close()
	b := dialBroker(t, srv)
	defer b.Close()
	waitForClients(t, broker, 2)

	broker.NotifyReload()

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
	}
}
