//go:build !tinygo

// Package status serves host diagnostics: health, the retained agent state
// and Prometheus metrics.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"sensenode-go/bus"
	"sensenode-go/internal/logging"
	"sensenode-go/services/agent"
	"sensenode-go/types"
)

type Server struct {
	server *http.Server
	log    *slog.Logger
}

// NewRouter wires the diagnostics routes. A nil gatherer serves the default
// registry.
func NewRouter(b *bus.Bus, g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", getHealthz).Methods("GET")
	router.HandleFunc("/status", getStatus(b)).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods("GET")
	return cors.Default().Handler(router)
}

func New(addr string, b *bus.Bus, g prometheus.Gatherer, log *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(b, g),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logging.OrDiscard(log).With("component", "status"),
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func getHealthz(w http.ResponseWriter, r *http.Request) {
	replyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
}

func getStatus(b *bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, ok := b.Retained(agent.StateTopic)
		if !ok {
			replyJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		st, ok := msg.Payload.(types.AgentState)
		if !ok {
			replyJSONResponse(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		replyJSONResponse(w, http.StatusOK, st)
	}
}

func replyJSONResponse(w http.ResponseWriter, code int, output any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(output)
}
