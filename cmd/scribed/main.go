package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribed/internal/api"
	"github.com/snarg/scribed/internal/config"
	"github.com/snarg/scribed/internal/media"
	"github.com/snarg/scribed/internal/pipeline"
	"github.com/snarg/scribed/internal/quota"
	"github.com/snarg/scribed/internal/render"
	"github.com/snarg/scribed/internal/storage"
	"github.com/snarg/scribed/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	// Config
	cfg, err := config.Load()
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("scribed starting")

	if !media.CheckFFmpeg() {
		log.Warn().Msg("ffmpeg/ffprobe not found in PATH; large files cannot be split and durations fall back to size estimates")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Upload storage and leak pruner
	store, err := storage.NewUploadStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create upload directory")
	}
	pruner := storage.NewPruner(cfg.UploadDir, cfg.UploadRetention, log)
	pruner.Start()
	defer pruner.Stop()

	// Shared hourly quota, injected into the pipeline
	limiter := quota.NewLimiter(cfg.QuotaWindow, cfg.QuotaCapacity, time.Now)

	provider := transcribe.NewGroqClient(transcribe.GroqOptions{
		URL:      cfg.GroqURL,
		APIKey:   cfg.GroqAPIKey,
		Model:    cfg.GroqModel,
		Language: cfg.GroqLanguage,
		Timeout:  cfg.GroqTimeout,
	})

	pipe := pipeline.New(pipeline.Options{
		Limiter:            limiter,
		Provider:           provider,
		Splitter:           media.NewSplitter(log.With().Str("component", "splitter").Logger()),
		Renderer:           render.NewPDFRenderer(cfg.FontPath),
		SegmentThresholdMB: cfg.SegmentSizeMB,
		Log:                log.With().Str("component", "pipeline").Logger(),
	})

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, pipe, limiter, store, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribed stopped")
}
