package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/config"
	"github.com/Hazehacker/Haze-AI-Hub/internal/logging"
	"github.com/Hazehacker/Haze-AI-Hub/internal/observability"
	"github.com/Hazehacker/Haze-AI-Hub/internal/policy"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
	handler "github.com/Hazehacker/Haze-AI-Hub/internal/transport/http"
	"github.com/Hazehacker/Haze-AI-Hub/internal/transport/ws"
)

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting hazeaihub",
		zap.Int("port", cfg.HTTP.Port),
		zap.String("llm_base_url", cfg.LLM.BaseURL),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("mock", cfg.LLM.Mock),
	)

	// Initialize store
	store, err := repository.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	// Initialize LLM client
	llmClient := llm.NewLLMClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout, cfg.LLM.Mock, logger)

	// Initialize policy engine
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policyContent, err := policy.LoadPolicy(cfg.Policy.File)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Initialize service and transports
	svc := service.New(store, llmClient, policyEngine, metrics, logger, cfg)
	wsServer := ws.NewServer(cfg.WS, svc, ws.NewHub(), logger)
	server := handler.NewServer(svc, wsServer, reg, logger)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server started", zap.Int("port", cfg.HTTP.Port))

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down hazeaihub")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("hazeaihub stopped")
	return nil
}
