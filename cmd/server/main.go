package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/legalchunk/internal/api"
	"github.com/dgallion1/legalchunk/internal/chat"
	"github.com/dgallion1/legalchunk/internal/config"
	"github.com/dgallion1/legalchunk/internal/llm"
	"github.com/dgallion1/legalchunk/internal/metrics"
)

func main() {
	if err := config.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		slog.Error("env file", "error", err)
		os.Exit(1)
	}

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).
		With("app", cfg.AppName)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := api.Deps{
		Chat:     chat.EchoService{},
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}

	// The chat endpoint echoes unless an LLM key is configured.
	var client *llm.Client
	if cfg.LLMAPIKey != "" {
		client = llm.NewClient(llm.Options{
			BaseURL: cfg.ChatBaseURL(),
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		deps.Chat = chat.NewLLMService(client, llm.Retrier{Log: log}, log)
		deps.Stats = client.Stats()
		log.Info("llm chat enabled", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	}

	srv := api.NewServer(deps, log, cfg)

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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "error", err)
		}
		if client != nil {
			client.Close()
		}
	}()

	log.Info("starting legalchunk", "port", cfg.Port, "profile", cfg.ChunkProfile, "api_keys", len(cfg.APIKeys))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
