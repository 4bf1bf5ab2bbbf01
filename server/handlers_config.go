package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/lolnuked/streamguard/db"
)

// HandleConfig handles GET and PUT requests for safe configuration keys.
// Overrides live in the kv table under a cfg: prefix and take precedence
// over the environment. Secrets are never exposed here.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	safeKeys := map[string]bool{
		"LOG_LEVEL":          true,
		"LOG_FORMAT":         true,
		"CHAT_ENDPOINT":      true,
		"CHAT_ROOM_ID":       true,
		"CHAT_HISTORY_LIMIT": true,
	}
	if h.db == nil {
		http.Error(w, "config store unavailable", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		out := map[string]string{}
		for k := range safeKeys {
			v, err := db.GetKV(r.Context(), h.db, "cfg:"+k)
			if err != nil {
				slog.Warn("config: kv read failed", slog.String("key", k), slog.Any("err", err))
			}
			if v == "" {
				v = os.Getenv(k)
			}
			if v != "" {
				out[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPut:
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		for k, v := range body {
			if !safeKeys[k] {
				http.Error(w, "unknown config key: "+k, http.StatusBadRequest)
				return
			}
			if err := db.SetKV(r.Context(), h.db, "cfg:"+k, v); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
