package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FrameKind classifies an inbound frame by its protocol prefix.
type FrameKind int

const (
	// FrameUnknown is anything that doesn't match a recognized prefix.
	FrameUnknown FrameKind = iota
	// FrameHandshake is the initial handshake frame (prefix "0").
	FrameHandshake
	// FrameNamespaceAck acknowledges the namespace connection (prefix "40").
	FrameNamespaceAck
	// FrameEvent carries a JSON-encoded [eventType, payload] pair (prefix "42").
	FrameEvent
)

// Frame is one decoded inbound frame. Event and Payload are only set for
// FrameEvent frames.
type Frame struct {
	Kind    FrameKind
	Event   string
	Payload json.RawMessage
}

// ParseFrame decodes a raw text frame into its tagged form. A malformed event
// frame returns an error; unrecognized prefixes return FrameUnknown with no
// error so the caller can drop them silently.
func ParseFrame(data string) (Frame, error) {
	switch {
	case strings.HasPrefix(data, "42"):
		var parts []json.RawMessage
		if err := json.Unmarshal([]byte(data[2:]), &parts); err != nil {
			return Frame{}, fmt.Errorf("decode event frame: %w", err)
		}
		if len(parts) == 0 {
			return Frame{}, fmt.Errorf("decode event frame: empty event array")
		}
		var event string
		if err := json.Unmarshal(parts[0], &event); err != nil {
			return Frame{}, fmt.Errorf("decode event type: %w", err)
		}
		f := Frame{Kind: FrameEvent, Event: event}
		if len(parts) > 1 {
			f.Payload = parts[1]
		}
		return f, nil
	case strings.HasPrefix(data, "40"):
		return Frame{Kind: FrameNamespaceAck}, nil
	case strings.HasPrefix(data, "0"):
		return Frame{Kind: FrameHandshake}, nil
	default:
		return Frame{Kind: FrameUnknown}, nil
	}
}

// unmarshalPayload decodes an event payload into v.
func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing event payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}
	return nil
}

// outboundMessage is the payload shape of a sendMessage event.
type outboundMessage struct {
	RoomID    string    `json:"roomId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// joinFrame encodes a joinRoom request: 42["joinRoom","<roomId>"].
func joinFrame(roomID string) ([]byte, error) {
	body, err := json.Marshal([]any{"joinRoom", roomID})
	if err != nil {
		return nil, fmt.Errorf("encode join frame: %w", err)
	}
	return append([]byte("42"), body...), nil
}

// sendFrame encodes a sendMessage request: 42["sendMessage",{...}].
func sendFrame(msg outboundMessage) ([]byte, error) {
	body, err := json.Marshal([]any{"sendMessage", msg})
	if err != nil {
		return nil, fmt.Errorf("encode send frame: %w", err)
	}
	return append([]byte("42"), body...), nil
}
