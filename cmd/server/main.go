package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Hassanibrar632/Automated-BookGen/internal/api"
	"github.com/Hassanibrar632/Automated-BookGen/internal/bookgen"
	"github.com/Hassanibrar632/Automated-BookGen/internal/config"
	"github.com/Hassanibrar632/Automated-BookGen/internal/llm"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

func main() {
	cfg := config.Load()

	log, logFile := newLogger(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client := llm.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.LLMTimeout)

	gen := bookgen.NewGenerator(st, client, log, cfg.MaxAttempts)
	runner := bookgen.NewRunner(gen, log, cfg.JobTTL, 16)
	runner.Start(ctx)

	srv := api.NewServer(st, gen, runner, client, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop taking requests before draining the runner.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		runner.Stop()
		client.Close()
	}()

	log.Info("starting bookgen", "port", cfg.Port, "model", cfg.OpenRouterModel, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newLogger builds a JSON logger writing to stdout and, when a log
// directory is configured, to a file inside it as well.
func newLogger(cfg config.Config) (*slog.Logger, *os.File) {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stdout
	var logFile *os.File
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
			path := filepath.Join(cfg.LogDir, "bookgen.log")
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				logFile = f
				w = io.MultiWriter(os.Stdout, f)
			}
		}
	}

	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return log, logFile
}
