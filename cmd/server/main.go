package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iProv-Casey/elevenlabs-examples/internal/bridge"
	"github.com/iProv-Casey/elevenlabs-examples/internal/config"
	"github.com/iProv-Casey/elevenlabs-examples/internal/elevenlabs"
	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
	"github.com/iProv-Casey/elevenlabs-examples/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "twilio-convai-bridge"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load .env if present; real deployments use the environment directly
	_ = godotenv.Load()

	// Load configuration (file is optional, secrets may come from env)
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.String("agent_id", cfg.ElevenLabs.AgentID),
		slog.String("public_host", cfg.Twilio.PublicHost),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize ElevenLabs API client
	elevenClient, err := elevenlabs.NewClient(elevenlabs.Config{
		AgentID: cfg.ElevenLabs.AgentID,
		APIKey:  cfg.ElevenLabs.APIKey,
		BaseURL: cfg.ElevenLabs.BaseURL,
		Timeout: cfg.Server.GetSetupTimeout(),
	})
	if err != nil {
		logger.Error("failed to create ElevenLabs client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize bridge supervisor
	supervisor := bridge.NewSupervisor(logger, appMetrics, elevenClient,
		cfg.ElevenLabs, cfg.Server.GetSetupTimeout())

	// Initialize and start HTTP server
	httpServer := server.NewHTTPServer(cfg, logger, supervisor, appMetrics)
	serverErr := httpServer.Start()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("service started",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("starting graceful shutdown")

	// Stop accepting new connections first
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.Server.GetShutdownTimeout())
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Force-close any calls still bridged
	supervisor.CloseAll()

	logger.Info("service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
