// Package main is the entry point for the pressbridge server. It loads
// configuration, builds the WordPress and image-generation clients, sets up
// routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pressbridge/internal/config"
	"pressbridge/internal/handlers"
	"pressbridge/internal/history"
	"pressbridge/internal/imagegen"
	"pressbridge/internal/publisher"
	"pressbridge/internal/router"
	"pressbridge/internal/sites"
	"pressbridge/internal/tools"
	"pressbridge/internal/wp"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"sites_file", cfg.SitesFile,
	)

	registry, err := sites.Load(cfg.SitesFile)
	if err != nil {
		slog.Error("failed to load site registry", "error", err)
		os.Exit(1)
	}
	slog.Info("site registry loaded", "sites", registry.Len())

	wpClient := wp.NewClient(cfg.RequestTimeout, cfg.UploadTimeout, cfg.TermsPerPage)

	generator := imagegen.New(imagegen.Config{
		APIKey:          cfg.OpenAIKey,
		Model:           cfg.OpenAIModel,
		BaseURL:         cfg.OpenAIBaseURL,
		DownloadTimeout: cfg.UploadTimeout,
	})
	if generator.Available() {
		slog.Info("image generation enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Warn("image generation disabled — OPENAI_API_KEY not set")
	}

	// Publish history is optional; a nil log disables it.
	publishLog, err := history.Open(cfg.HistoryDB)
	if err != nil {
		slog.Error("failed to open publish history", "error", err)
		os.Exit(1)
	}
	if publishLog != nil {
		defer publishLog.Close()
		slog.Info("publish history enabled", "path", cfg.HistoryDB)
	}

	pub := publisher.New(registry, wpClient, generator, cfg.DefaultPostStatus, cfg.DefaultPostFormat)
	dispatcher := tools.NewDispatcher(registry, wpClient, pub, publishLog)

	r := router.New(handlers.NewTools(dispatcher))

	// WriteTimeout must accommodate the full orchestration: image
	// generation plus download plus multipart upload can take a minute.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
