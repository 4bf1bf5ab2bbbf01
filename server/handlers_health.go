package server

import (
	"encoding/json"
	"net/http"
)

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with per-dependency checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error {
			if h.db == nil {
				return nil
			}
			return h.db.PingContext(r.Context())
		}},
		{"settings_store", func() error {
			if h.settings == nil {
				return nil
			}
			_, err := h.settings.Load(r.Context())
			return err
		}},
	}

	type checkResult struct {
		Name string `json:"name"`
		OK   bool   `json:"ok"`
		Err  string `json:"error,omitempty"`
	}
	results := make([]checkResult, 0, len(checks))
	ready := true
	for _, c := range checks {
		res := checkResult{Name: c.name, OK: true}
		if err := c.fn(); err != nil {
			res.OK = false
			res.Err = err.Error()
			ready = false
		}
		results = append(results, res)
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ready": ready, "checks": results})
}
