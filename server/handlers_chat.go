package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lolnuked/streamguard/chat"
)

// HandleStatus answers the control surface's activity query: whether the
// client is actively monitoring and which room.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.monitor.Status())
}

// HandleMessages returns a snapshot of the recent message history.
func (h *Handlers) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := parseIntQuery(r, "limit", 0)
	msgs := h.client.Messages(limit)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msgs)
}

// HandleLatestMessage returns the most recent message, or 404 when the
// history is empty.
func (h *Handlers) HandleLatestMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	msg, ok := h.client.LatestMessage()
	if !ok {
		http.Error(w, "no messages", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msg)
}

// HandleSend transmits a message to the active room.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.client.SendMessage(body.Message); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, chat.ErrNoRoom), errors.Is(err, chat.ErrNotConnected):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("sent"))
}

// HandleActivate forces a reconnect after the client has gone dormant.
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.monitor.Activate()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.monitor.Status())
}
