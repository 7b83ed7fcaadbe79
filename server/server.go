package server

import (
	"log/slog"
	"net/http"

	kbase "github.com/arclight-labs/kbase"
)

// New builds an http.Server exposing the search service as a small JSON API.
// Transport concerns stay here; the service never sees HTTP types.
func New(addr string, svc *kbase.Service) *http.Server {
	handlers := NewHandlers(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", handlers.HandleSearch)
	mux.HandleFunc("/api/stats", handlers.HandleStats)
	mux.HandleFunc("/api/random", handlers.HandleRandom)
	mux.HandleFunc("/api/rebuild", handlers.HandleRebuild)

	slog.Info("server listening", "addr", addr)
	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
