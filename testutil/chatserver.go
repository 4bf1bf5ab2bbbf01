// Package testutil provides shared test helpers: a mock chat websocket
// server speaking the framed room protocol, and Postgres setup for
// integration tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MockChatServer accepts websocket connections and records every frame the
// client sends. Frames can be pushed to connected clients with Send.
type MockChatServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	frames   []string
	connects int
}

// NewMockChatServer starts a mock chat endpoint. It is closed automatically
// at the end of the test.
func NewMockChatServer(t *testing.T) *MockChatServer {
	t.Helper()
	m := &MockChatServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.mu.Lock()
		m.conns = append(m.conns, conn)
		m.connects++
		m.mu.Unlock()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			m.mu.Lock()
			m.frames = append(m.frames, string(data))
			m.mu.Unlock()
		}
	}))
	t.Cleanup(m.Close)
	return m
}

// WSURL returns the ws:// endpoint of the server.
func (m *MockChatServer) WSURL() string {
	return "ws" + strings.TrimPrefix(m.Server.URL, "http")
}

// Send pushes a raw frame to every connected client.
func (m *MockChatServer) Send(t *testing.T, frame string) {
	t.Helper()
	m.mu.Lock()
	conns := append([]*websocket.Conn(nil), m.conns...)
	m.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Logf("mock chat server write: %v", err)
		}
	}
}

// Frames returns a copy of the frames received so far.
func (m *MockChatServer) Frames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.frames...)
}

// Connects returns how many websocket connections have been accepted.
func (m *MockChatServer) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

// DropConnections closes every open connection, simulating a server-side drop.
func (m *MockChatServer) DropConnections() {
	m.mu.Lock()
	conns := m.conns
	m.conns = nil
	m.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// WaitFor polls cond until it returns true or the timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
