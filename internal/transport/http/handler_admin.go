package httptransport

import (
	"context"
	"net/http"
	"sort"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type AdminHandlers struct {
	checks map[string]HealthCheck
}

func NewAdminHandlers(checks map[string]HealthCheck) *AdminHandlers {
	return &AdminHandlers{checks: checks}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		out := map[string]any{"ok": true}
		status := http.StatusOK
		for _, name := range names {
			if err := h.checks[name](r.Context()); err != nil {
				out[name] = "down"
				out["ok"] = false
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "up"
		}
		writeJSON(w, status, out)
	}
}
