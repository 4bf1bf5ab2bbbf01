package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lolnuked/streamguard/settings"
	"github.com/lolnuked/streamguard/telemetry"
)

// settingsView is the JSON shape returned by GET /settings. It includes the
// derived active flag alongside the stored values.
type settingsView struct {
	settings.Settings
	AutoReplyActive bool `json:"auto_reply_active"`
}

// HandleSettings serves the full settings snapshot and accepts partial
// updates. PUT merges only the fields present in the body.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, err := h.settings.Load(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeSettings(w, s)
	case http.MethodPut:
		var body struct {
			Enabled          *bool   `json:"enabled"`
			Action           *string `json:"action"`
			DelayMs          *int    `json:"delay_ms"`
			BanReason        *string `json:"ban_reason"`
			AutoReplyEnabled *bool   `json:"auto_reply_enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s, err := h.settings.Apply(r.Context(), settings.Update{
			Enabled:          body.Enabled,
			Action:           body.Action,
			DelayMs:          body.DelayMs,
			BanReason:        body.BanReason,
			AutoReplyEnabled: body.AutoReplyEnabled,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		telemetry.CountSettingsWrite()
		writeSettings(w, s)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleReplies serves and replaces the ordered auto-reply rule set.
func (h *Handlers) HandleReplies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, err := h.settings.Load(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rules := s.AutoReplies
		if rules == nil {
			rules = []settings.AutoReplyRule{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rules)
	case http.MethodPut:
		var rules []settings.AutoReplyRule
		if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s, err := h.settings.Apply(r.Context(), settings.Update{AutoReplies: &rules})
		if err != nil {
			if errors.Is(err, settings.ErrEmptyRule) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		telemetry.CountSettingsWrite()
		writeSettings(w, s)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDefaultReplies serves the example rule set the control surface can
// offer as a starting point. It never touches the store.
func (h *Handlers) HandleDefaultReplies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings.DefaultRules())
}

func writeSettings(w http.ResponseWriter, s settings.Settings) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settingsView{Settings: s, AutoReplyActive: s.AutoReplyActive()})
}
