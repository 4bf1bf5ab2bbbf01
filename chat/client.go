package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lolnuked/streamguard/telemetry"
)

// DefaultEndpoint is the production chat socket URL.
const DefaultEndpoint = "wss://pump.fun/socket.io/?EIO=4&transport=websocket"

const (
	defaultUsername     = "anonymous"
	defaultHistoryLimit = 100

	maxReconnectAttempts = 5
	baseReconnectDelay   = 1000 * time.Millisecond
)

var (
	// ErrNotConnected is returned when an operation requires an open connection.
	ErrNotConnected = errors.New("chat: not connected")
	// ErrNoRoom is returned when sending without a room id set.
	ErrNoRoom = errors.New("chat: no room id set")
	// ErrEmptyMessage is returned when the text is empty after trimming.
	ErrEmptyMessage = errors.New("chat: empty message")
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Endpoint is the websocket URL of the chat service.
	Endpoint string
	// RoomID is the room to join on connect. May be set later via SetRoomID.
	RoomID string
	// Username defaults to "anonymous".
	Username string
	// MessageHistoryLimit bounds the in-memory history (default 100, min 1).
	MessageHistoryLimit int
}

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// Client maintains a single logical connection to one chat room, converts
// wire frames into typed events, keeps a bounded message history, and
// recovers from drops with linearly increasing backoff (up to five attempts,
// then it stays disconnected until Connect is called again).
//
// Connect is guarded: calling it while already connecting or connected is a
// no-op. All exported methods are safe for concurrent use.
type Client struct {
	endpoint     string
	username     string
	historyLimit int

	// baseDelay is fixed in production; tests shrink it.
	baseDelay   time.Duration
	maxAttempts int

	dialer *websocket.Dialer

	emitter

	mu                sync.Mutex
	writeMu           sync.Mutex
	roomID            string
	state             connState
	conn              *websocket.Conn
	messages          []ChatMessage
	reconnectAttempts int
	reconnectTimer    *time.Timer
	readGen           int
}

// New creates a client. It does not open the connection; call Connect.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Username == "" {
		opts.Username = defaultUsername
	}
	if opts.MessageHistoryLimit < 1 {
		opts.MessageHistoryLimit = defaultHistoryLimit
	}
	return &Client{
		endpoint:     opts.Endpoint,
		username:     opts.Username,
		historyLimit: opts.MessageHistoryLimit,
		roomID:       opts.RoomID,
		baseDelay:    baseReconnectDelay,
		maxAttempts:  maxReconnectAttempts,
		dialer:       websocket.DefaultDialer,
	}
}

// On subscribes a handler to an event type. Handlers run in subscription
// order; a panicking handler is isolated and logged.
func (c *Client) On(t EventType, h Handler) { c.on(t, h) }

// Connect opens the websocket and joins the configured room. Failures never
// propagate to the caller: a malformed endpoint surfaces as a single error
// event, while a dial failure additionally follows the disconnect path so the
// usual reconnection backoff applies.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.state != stateDisconnected {
		c.mu.Unlock()
		slog.Debug("chat: connect ignored, already active")
		return
	}
	c.stopReconnectTimerLocked()
	c.state = stateConnecting
	endpoint := c.endpoint
	c.mu.Unlock()

	if u, err := url.Parse(endpoint); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		if err == nil {
			err = fmt.Errorf("chat: unsupported endpoint scheme %q", endpoint)
		}
		slog.Error("chat: invalid endpoint", slog.Any("err", err))
		c.mu.Lock()
		c.state = stateDisconnected
		c.mu.Unlock()
		c.emit(Event{Type: EventError, Err: err})
		return
	}

	conn, resp, err := c.dialer.Dial(endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		slog.Error("chat: dial failed", slog.Any("err", err))
		c.mu.Lock()
		c.state = stateDisconnected
		c.mu.Unlock()
		c.emit(Event{Type: EventError, Err: fmt.Errorf("chat: dial: %w", err)})
		c.emit(Event{Type: EventDisconnected})
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.state = stateConnected
	c.reconnectAttempts = 0
	c.readGen++
	gen := c.readGen
	roomID := c.roomID
	c.mu.Unlock()

	slog.Info("chat: connected", slog.String("endpoint", endpoint))
	telemetry.SetConnected(true)
	c.emit(Event{Type: EventConnected})

	if roomID != "" {
		if err := c.JoinRoom(roomID); err != nil {
			slog.Warn("chat: join on connect failed", slog.String("room", roomID), slog.Any("err", err))
		}
	}

	go c.readPump(conn, gen)
}

// readPump reads frames until the connection drops, then runs the close path.
func (c *Client) readPump(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(string(data))
	}
}

// handleClose runs once per connection drop. Stale pumps (superseded by a
// manual Disconnect or a newer connection) are ignored.
func (c *Client) handleClose(gen int, cause error) {
	c.mu.Lock()
	if gen != c.readGen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = stateDisconnected
	c.mu.Unlock()

	slog.Info("chat: connection closed", slog.Any("cause", cause))
	telemetry.SetConnected(false)
	c.emit(Event{Type: EventDisconnected})
	c.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer, or emits
// maxReconnectAttemptsReached once the cap is exhausted. Delay grows linearly
// with the attempt count: 1x base, 2x base, up to 5x.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.reconnectAttempts >= c.maxAttempts {
		c.mu.Unlock()
		slog.Warn("chat: max reconnect attempts reached", slog.Int("attempts", c.maxAttempts))
		telemetry.CountReconnectExhausted()
		c.emit(Event{Type: EventMaxReconnectAttemptsReached})
		return
	}
	delay := reconnectDelay(c.baseDelay, c.reconnectAttempts)
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectAttempts++
		attempt := c.reconnectAttempts
		c.reconnectTimer = nil
		c.mu.Unlock()
		slog.Info("chat: reconnecting", slog.Int("attempt", attempt))
		telemetry.CountReconnectAttempt()
		c.Connect()
	})
	c.mu.Unlock()
	slog.Debug("chat: reconnect scheduled", slog.Duration("delay", delay))
}

// reconnectDelay computes the wait before the next attempt given the number
// of attempts already made: 1x base for the first retry, then 2x, 3x...
func reconnectDelay(base time.Duration, attemptsMade int) time.Duration {
	return base * time.Duration(attemptsMade+1)
}

// stopReconnectTimerLocked cancels a pending retry. Caller holds c.mu.
func (c *Client) stopReconnectTimerLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// handleFrame dispatches one inbound frame. Parse failures are logged and
// emitted as error events; they never escape the dispatch loop.
func (c *Client) handleFrame(data string) {
	frame, err := ParseFrame(data)
	if err != nil {
		slog.Warn("chat: frame parse error", slog.Any("err", err))
		telemetry.CountFrameDropped()
		c.emit(Event{Type: EventError, Err: err})
		return
	}
	telemetry.CountFrameReceived()
	switch frame.Kind {
	case FrameHandshake:
		slog.Debug("chat: handshake received")
	case FrameNamespaceAck:
		slog.Debug("chat: namespace connected")
	case FrameEvent:
		c.dispatchEvent(frame)
	default:
		// unrecognized prefix, dropped
	}
}

func (c *Client) dispatchEvent(f Frame) {
	switch f.Event {
	case "message":
		var msg ChatMessage
		if err := unmarshalPayload(f.Payload, &msg); err != nil {
			slog.Warn("chat: bad message payload", slog.Any("err", err))
			c.emit(Event{Type: EventError, Err: err})
			return
		}
		msg.normalize()
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		if len(c.messages) > c.historyLimit {
			c.messages = append(c.messages[:0], c.messages[1:]...)
		}
		c.mu.Unlock()
		telemetry.CountMessageReceived()
		c.emit(Event{Type: EventMessage, Message: &msg})
	case "messageHistory":
		var hist []ChatMessage
		if err := unmarshalPayload(f.Payload, &hist); err != nil {
			slog.Warn("chat: bad history payload", slog.Any("err", err))
			c.emit(Event{Type: EventError, Err: err})
			return
		}
		for i := range hist {
			hist[i].normalize()
		}
		if len(hist) > c.historyLimit {
			hist = hist[len(hist)-c.historyLimit:]
		}
		c.mu.Lock()
		c.messages = append(c.messages[:0:0], hist...)
		c.mu.Unlock()
		c.emit(Event{Type: EventMessageHistory, History: hist, Payload: f.Payload})
	case "userLeft":
		c.emit(Event{Type: EventUserLeft, Payload: f.Payload})
	default:
		slog.Debug("chat: unknown event type", slog.String("event", f.Event))
	}
}

// JoinRoom sends a join request for roomID. It requires an open connection
// and does not queue the request; it also does not change the client's
// configured room id (see SetRoomID).
func (c *Client) JoinRoom(roomID string) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == stateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	frame, err := joinFrame(roomID)
	if err != nil {
		return err
	}
	if err := c.writeText(conn, frame); err != nil {
		err = fmt.Errorf("chat: join room %s: %w", roomID, err)
		slog.Error("chat: join failed", slog.Any("err", err))
		c.emit(Event{Type: EventError, Err: err})
		return err
	}
	slog.Info("chat: joined room", slog.String("room", roomID))
	return nil
}

// SetRoomID sets the active room and, if connected, immediately joins it.
// Message history is kept as-is.
func (c *Client) SetRoomID(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	connected := c.state == stateConnected
	c.mu.Unlock()
	if connected {
		if err := c.JoinRoom(roomID); err != nil {
			slog.Warn("chat: join after room change failed", slog.String("room", roomID), slog.Any("err", err))
		}
	}
}

// RoomID returns the currently configured room id.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// SendMessage trims text, stamps it with the current time and transmits it to
// the active room. The text must be non-empty after trimming.
func (c *Client) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	c.mu.Lock()
	conn := c.conn
	connected := c.state == stateConnected
	roomID := c.roomID
	c.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	if roomID == "" {
		slog.Error("chat: send rejected, no room id set")
		return ErrNoRoom
	}
	frame, err := sendFrame(outboundMessage{RoomID: roomID, Message: text, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := c.writeText(conn, frame); err != nil {
		err = fmt.Errorf("chat: send message: %w", err)
		slog.Error("chat: send failed", slog.Any("err", err))
		c.emit(Event{Type: EventError, Err: err})
		return err
	}
	telemetry.CountMessageSent()
	slog.Debug("chat: message sent", slog.String("room", roomID))
	return nil
}

// writeText serializes writes; gorilla connections allow one writer at a time.
func (c *Client) writeText(conn *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// Messages returns a snapshot of the most recent limit messages (all if
// limit <= 0). Mutating the returned slice does not affect the client.
func (c *Client) Messages(limit int) []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// LatestMessage returns the most recent message, if any.
func (c *Client) LatestMessage() (ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return ChatMessage{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// IsActive reports whether the client is connected and the transport handle
// is still present (double-check against state drift).
func (c *Client) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected && c.conn != nil
}

// Disconnect closes the transport and cancels any pending reconnect attempt.
// Safe to call when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.stopReconnectTimerLocked()
	conn := c.conn
	c.conn = nil
	wasActive := c.state != stateDisconnected
	c.state = stateDisconnected
	c.readGen++ // orphan the read pump so it won't trigger a reconnect
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasActive {
		slog.Info("chat: disconnected")
		telemetry.SetConnected(false)
		c.emit(Event{Type: EventDisconnected})
	}
}
