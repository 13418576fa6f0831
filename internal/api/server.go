package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/scribed/internal/config"
	"github.com/snarg/scribed/internal/metrics"
	"github.com/snarg/scribed/internal/pipeline"
	"github.com/snarg/scribed/internal/quota"
	"github.com/snarg/scribed/internal/storage"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, p *pipeline.Pipeline, limiter *quota.Limiter, store *storage.UploadStore, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(metrics.InstrumentHandler)

	r.Route("/api", func(r chi.Router) {
		NewHealthHandler(version, startTime, cfg.GroqAPIKey != "").Routes(r)
		NewQuotaHandler(limiter).Routes(r)
		NewTranscribeHandler(p, store, cfg.MaxUploadMB, log).Routes(r)
	})

	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
