package chat

import (
	"context"
	"testing"
	"time"

	"github.com/lolnuked/streamguard/testutil"
)

func TestMonitorStartAndStatus(t *testing.T) {
	srv := testutil.NewMockChatServer(t)
	c := newTestClient(t, srv, Options{RoomID: "room-9"})
	m := NewMonitor(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	testutil.WaitFor(t, 2*time.Second, func() bool { return m.Status().Active })
	st := m.Status()
	if st.RoomID != "room-9" {
		t.Errorf("status room = %q, want %q", st.RoomID, "room-9")
	}
	if st.Dormant {
		t.Error("monitor dormant while connected")
	}

	cancel()
	testutil.WaitFor(t, 2*time.Second, func() bool { return !m.Status().Active })
}

func TestMonitorDormantAfterExhaustionAndActivate(t *testing.T) {
	// Unreachable endpoint burns through the retry attempts quickly.
	c := newTestClient(t, nil, Options{Endpoint: "ws://127.0.0.1:1"})
	m := NewMonitor(c)

	c.Connect()
	testutil.WaitFor(t, 5*time.Second, func() bool { return m.Status().Dormant })
	if m.Status().Active {
		t.Error("active while dormant")
	}

	// Point the client at a live server and force a reconnect.
	srv := testutil.NewMockChatServer(t)
	c.mu.Lock()
	c.endpoint = srv.WSURL()
	c.reconnectAttempts = 0
	c.mu.Unlock()

	m.Activate()
	testutil.WaitFor(t, 2*time.Second, func() bool {
		st := m.Status()
		return st.Active && !st.Dormant
	})
}

func TestMonitorActivateNoopWhenActive(t *testing.T) {
	srv := testutil.NewMockChatServer(t)
	c := newTestClient(t, srv, Options{})
	m := NewMonitor(c)
	connectAndWait(t, c)

	m.Activate()
	time.Sleep(50 * time.Millisecond)
	if got := srv.Connects(); got != 1 {
		t.Errorf("connections = %d after Activate on live client, want 1", got)
	}
}
