package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// healthHandler reports "ok" when every check passes, otherwise 503 with the
// names of the failing dependencies.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var failing []string
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failing = append(failing, name)
			}
		}
		sort.Strings(failing)

		w.Header().Set("Content-Type", "application/json")
		if len(failing) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "failing": failing})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}
