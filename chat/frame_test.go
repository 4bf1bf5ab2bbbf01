package chat

import (
	"strings"
	"testing"
	"time"
)

func TestParseFrameKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind FrameKind
	}{
		{"handshake", `0{"sid":"abc","upgrades":[]}`, FrameHandshake},
		{"namespace ack", `40{"sid":"xyz"}`, FrameNamespaceAck},
		{"event", `42["userLeft",{"username":"a"}]`, FrameEvent},
		{"ping", `2`, FrameUnknown},
		{"empty", ``, FrameUnknown},
		{"garbage", `hello`, FrameUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame(tt.in)
			if err != nil {
				t.Fatalf("ParseFrame(%q) error: %v", tt.in, err)
			}
			if f.Kind != tt.kind {
				t.Errorf("ParseFrame(%q) kind = %d, want %d", tt.in, f.Kind, tt.kind)
			}
		})
	}
}

func TestParseFrameEvent(t *testing.T) {
	f, err := ParseFrame(`42["message",{"id":"1","roomId":"r","username":"a","message":"hi","timestamp":"2024-01-01T00:00:00Z"}]`)
	if err != nil {
		t.Fatalf("ParseFrame error: %v", err)
	}
	if f.Event != "message" {
		t.Errorf("event = %q, want %q", f.Event, "message")
	}
	var msg ChatMessage
	if err := unmarshalPayload(f.Payload, &msg); err != nil {
		t.Fatalf("unmarshalPayload error: %v", err)
	}
	msg.normalize()
	if msg.ID != "1" || msg.RoomID != "r" || msg.Message != "hi" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.MessageType != MessageTypeText {
		t.Errorf("messageType = %q, want default %q", msg.MessageType, MessageTypeText)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", msg.Timestamp, want)
	}
}

func TestParseFrameMalformedEvent(t *testing.T) {
	for _, in := range []string{
		`42{"not":"an array"}`,
		`42[`,
		`42[]`,
		`42[42,{}]`,
	} {
		if _, err := ParseFrame(in); err == nil {
			t.Errorf("ParseFrame(%q) expected error", in)
		}
	}
}

func TestJoinFrame(t *testing.T) {
	got, err := joinFrame("myroom")
	if err != nil {
		t.Fatalf("joinFrame error: %v", err)
	}
	want := `42["joinRoom","myroom"]`
	if string(got) != want {
		t.Errorf("joinFrame = %q, want %q", got, want)
	}
}

func TestSendFrame(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got, err := sendFrame(outboundMessage{RoomID: "r1", Message: "gm", Timestamp: ts})
	if err != nil {
		t.Fatalf("sendFrame error: %v", err)
	}
	s := string(got)
	if !strings.HasPrefix(s, `42["sendMessage",{`) {
		t.Errorf("sendFrame prefix = %q", s)
	}
	for _, frag := range []string{`"roomId":"r1"`, `"message":"gm"`, `"timestamp":"2024-06-01T12:00:00Z"`} {
		if !strings.Contains(s, frag) {
			t.Errorf("sendFrame missing %q in %q", frag, s)
		}
	}
}
