package gtfsrtrelay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Server exposes a Service over HTTP.
type Server struct {
	svc  *Service
	http *http.Server
}

// NewServer builds the HTTP server listening on the configured port.
func NewServer(svc *Service) *Server {
	s := &Server{svc: svc}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", svc.Config.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// /gtfs/download may take as long as the dataset timeout
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /trains", s.handleTrains)
	mux.HandleFunc("GET /train/{trip_id}", s.handleTrain)
	mux.HandleFunc("GET /vehicles", s.handleVehicles)
	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("GET /stations", s.handleStations)
	mux.HandleFunc("GET /routes", s.handleRoutes)
	mux.HandleFunc("GET /departures", s.handleDepartures)
	mux.HandleFunc("GET /gtfs/status", s.handleGTFSStatus)
	mux.HandleFunc("POST /gtfs/download", s.handleGTFSDownload)
	return logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("Server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("Server shut down successfully")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
