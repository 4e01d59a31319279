// Package http exposes the catalog over a JSON HTTP API.
package http

import (
	"expvar"
	"log/slog"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/v1/sync/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/products", h.ListRecords)
	mux.HandleFunc("GET /api/v1/products/search", h.SearchRecords)
	mux.HandleFunc("GET /api/v1/products/{id}", h.GetRecord)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.DeleteRecord)
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /debug/vars", expvar.Handler())
	if logger == nil {
		logger = slog.Default()
	}
	return WithRequestID(WithLogging(logger, mux))
}
