package server

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status  string `json:"status"`
	App     string `json:"app"`
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// NewHealthHandler reports healthy while ping succeeds. A failing ping yields 503.
func NewHealthHandler(ping func(context.Context) error, app, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", App: app, Version: version}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				resp.Status = "unhealthy"
				resp.Error = "database unreachable"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
