// Package chat implements the realtime chat client at the core of
// streamguard.
//
// Client maintains exactly one connection to a chat room over the framed
// websocket protocol used by the room service: text frames prefixed "0"
// (handshake), "40" (namespace ack) and "42" (JSON event pair). Inbound
// events are fanned out to subscribers (connected, disconnected, message,
// messageHistory, userLeft, error, maxReconnectAttemptsReached) and recent
// messages are kept in a bounded in-memory history. Drops are retried with
// linearly increasing backoff up to five attempts; after that the client
// stays disconnected until it is reconnected manually.
//
// Monitor wraps a Client with an activation state for the control surface,
// and StartRecorder archives inbound messages to Postgres.
package chat
