package chat

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// EventType identifies one of the client's lifecycle or stream events.
type EventType string

const (
	EventConnected                   EventType = "connected"
	EventDisconnected                EventType = "disconnected"
	EventMessage                     EventType = "message"
	EventMessageHistory              EventType = "messageHistory"
	EventUserLeft                    EventType = "userLeft"
	EventError                       EventType = "error"
	EventMaxReconnectAttemptsReached EventType = "maxReconnectAttemptsReached"
)

// Event is delivered to subscribers. Only the fields relevant to the event
// type are populated: Message for EventMessage, History and Payload for
// EventMessageHistory, Payload for EventUserLeft, Err for EventError.
type Event struct {
	Type    EventType
	Message *ChatMessage
	History []ChatMessage
	Payload json.RawMessage
	Err     error
}

// Handler receives events for a subscribed type.
type Handler func(Event)

// emitter fans events out to subscribers in subscription order. A panicking
// subscriber is logged and does not prevent the remaining subscribers from
// running.
type emitter struct {
	mu       sync.Mutex
	handlers map[EventType][]Handler
}

func (e *emitter) on(t EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[EventType][]Handler)
	}
	e.handlers[t] = append(e.handlers[t], h)
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	hs := make([]Handler, len(e.handlers[ev.Type]))
	copy(hs, e.handlers[ev.Type])
	e.mu.Unlock()
	for _, h := range hs {
		callIsolated(h, ev)
	}
}

func callIsolated(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chat: event subscriber panicked", slog.String("event", string(ev.Type)), slog.Any("panic", r))
		}
	}()
	h(ev)
}
