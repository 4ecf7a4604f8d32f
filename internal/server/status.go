// Package server exposes the operator status endpoint: per-station
// session health, anomaly counters, and archive cursor positions.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/managers"
)

// StatusServer serves the read-only status API.
type StatusServer struct {
	srv      *http.Server
	stations *managers.StationManager
	logger   *zap.SugaredLogger
	started  time.Time
}

// New builds the server on addr.
func New(addr string, stations *managers.StationManager, logger *zap.SugaredLogger) *StatusServer {
	s := &StatusServer{
		stations: stations,
		logger:   logger,
		started:  time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/status/{station}", s.handleStationStatus).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *StatusServer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.logger.Infof("status endpoint listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("status endpoint: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stations": s.stations.Statuses(),
	})
}

func (s *StatusServer) handleStationStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["station"]
	for _, status := range s.stations.Statuses() {
		if status.Station == name {
			writeJSON(w, http.StatusOK, status)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": fmt.Sprintf("no such station %q", name),
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
