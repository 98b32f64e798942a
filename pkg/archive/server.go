// Package archive exposes the flow artifacts store over HTTP: ingest and
// retrieval of exported snapshots plus a live stream of telemetry events.
// It is a localhost-oriented service; callers put it behind their own
// transport security when exposing it further.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/odvcencio/beacon/pkg/flow"
	"github.com/odvcencio/beacon/pkg/observability"
	"github.com/odvcencio/beacon/pkg/storage"
	"github.com/odvcencio/beacon/pkg/telemetry"
)

// maxFlowBodyBytes bounds ingested artifact snapshots. Gather payloads can
// be large but a full flow export should stay well under this.
const maxFlowBodyBytes int64 = 32 << 20

// Config controls the archive server behavior.
type Config struct {
	BindAddress string
	Version     string
	// Mutating routes share one limiter. Zero values pick the defaults.
	WriteRatePerSecond float64
	WriteBurst         int
}

// Server hosts the JSON/HTTP + WebSocket API over a flow archive store.
type Server struct {
	cfg          Config
	store        *storage.Store
	hub          *telemetry.Hub
	logger       *observability.Logger
	events       *eventStream
	writeLimiter *rate.Limiter
	httpServer   *http.Server
}

// NewServer constructs a server bound to the provided store. The hub may be
// nil when no event stream consumers exist.
func NewServer(cfg Config, store *storage.Store, hub *telemetry.Hub, logger *observability.Logger) *Server {
	if cfg.BindAddress == "" {
		cfg.BindAddress = "127.0.0.1:4517"
	}
	if cfg.WriteRatePerSecond <= 0 {
		cfg.WriteRatePerSecond = 20
	}
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = 40
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return &Server{
		cfg:          cfg,
		store:        store,
		hub:          hub,
		logger:       logger,
		events:       newEventStream(hub, logger),
		writeLimiter: rate.NewLimiter(rate.Limit(cfg.WriteRatePerSecond), cfg.WriteBurst),
	}
}

// Handler builds the archive route tree.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)

	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/flows", func(r chi.Router) {
			r.With(s.writeLimitMiddleware).Post("/", s.handleSaveFlow)
			r.Get("/", s.handleListFlows)
			r.Get("/{flowID}", s.handleGetFlow)
			r.With(s.writeLimitMiddleware).Delete("/{flowID}", s.handleDeleteFlow)
		})
		r.Get("/events", s.events.handleWebSocket)
	})

	return router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	defer s.events.shutdown()

	s.httpServer = &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("serving flow archive", slog.String("addr", s.cfg.BindAddress))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil && s.store.DB() != nil {
		if err := s.store.DB().PingContext(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, errors.New("database unavailable"))
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSaveFlow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body too large (max %d bytes)", maxFlowBodyBytes))
			return
		}
		respondError(w, http.StatusBadRequest, err)
		return
	}

	artifacts, err := flow.ParseArtifacts(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	record, err := s.store.SaveFlow(r.Context(), artifacts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	observability.ArchiveFlowsSaved.Inc()
	s.logger.ArchiveSaved(record.ID, record.Name, record.StepCount)
	s.hub.Publish(telemetry.Event{
		Type:   telemetry.EventArchiveSaved,
		FlowID: record.ID,
		Data: map[string]any{
			"name":      record.Name,
			"stepCount": record.StepCount,
		},
	})

	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	records, err := s.store.ListFlows(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"flows": records})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "flowID")
	stored, err := s.store.GetFlow(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFlowNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "flowID")
	if err := s.store.DeleteFlow(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrFlowNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	observability.ArchiveFlowsDeleted.Inc()
	s.hub.Publish(telemetry.Event{
		Type:   telemetry.EventArchiveDeleted,
		FlowID: id,
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
