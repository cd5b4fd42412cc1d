package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bteparse/internal/api"
	"github.com/dgallion1/bteparse/internal/config"
	"github.com/dgallion1/bteparse/internal/fetch"
	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/pipeline"
	"github.com/dgallion1/bteparse/internal/store"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage and clients.
	docs, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	fetcher := fetch.NewClient(fetch.Options{
		Timeout:     cfg.FetchTimeout,
		MinInterval: cfg.FetchMinInterval,
		MaxRetries:  cfg.FetchMaxRetries,
		MaxBytes:    cfg.MaxUploadBytes,
		UserAgent:   cfg.UserAgent,
	}, log)
	decoder := &parser.PDFDecoder{FallbackPdftotext: cfg.PDFFallbackPdftotext}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, fetcher, decoder, docs, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, docs, fetcher, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		docs.Close()
	}()

	log.Info("starting bteparse", "port", cfg.Port, "workers", cfg.WorkerCount, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
