package chat

import (
	"context"
	"log/slog"
	"sync"
)

// Monitor owns the client lifecycle for the configured room. It connects on
// Start, goes dormant once automatic reconnection is exhausted, and can be
// reactivated on demand. It also receives settings-change notifications from
// the control surface so enforcement consumers stay in sync.
type Monitor struct {
	client *Client

	mu      sync.Mutex
	dormant bool
}

// Status is the answer to a control-surface activity query.
type Status struct {
	Active  bool   `json:"active"`
	RoomID  string `json:"room_id"`
	Dormant bool   `json:"dormant"`
}

// NewMonitor wraps a client. Call Start to begin monitoring.
func NewMonitor(client *Client) *Monitor {
	m := &Monitor{client: client}
	client.On(EventMaxReconnectAttemptsReached, func(Event) {
		m.mu.Lock()
		m.dormant = true
		m.mu.Unlock()
		slog.Warn("monitor: reconnect attempts exhausted; dormant until reactivated")
	})
	client.On(EventConnected, func(Event) {
		m.mu.Lock()
		m.dormant = false
		m.mu.Unlock()
	})
	return m
}

// Start connects the client and disconnects it when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	slog.Info("monitor: starting", slog.String("room", m.client.RoomID()))
	m.client.Connect()
	go func() {
		<-ctx.Done()
		m.client.Disconnect()
	}()
}

// Status reports whether the client is actively monitoring and which room.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	dormant := m.dormant
	m.mu.Unlock()
	return Status{
		Active:  m.client.IsActive(),
		RoomID:  m.client.RoomID(),
		Dormant: dormant,
	}
}

// Activate forces a reconnect after the client has gone dormant. It is a
// no-op while the connection is up.
func (m *Monitor) Activate() {
	if m.client.IsActive() {
		return
	}
	slog.Info("monitor: manual activation")
	m.client.Connect()
}

// AutoReplyToggled implements settings.Listener. Enforcement runs outside
// this process; the monitor only records the change.
func (m *Monitor) AutoReplyToggled(ctx context.Context, enabled bool) {
	slog.Info("monitor: auto-reply toggled", slog.Bool("enabled", enabled), slog.String("room", m.client.RoomID()))
}

// RulesUpdated implements settings.Listener.
func (m *Monitor) RulesUpdated(ctx context.Context) {
	slog.Info("monitor: auto-reply rules updated", slog.String("room", m.client.RoomID()))
}
