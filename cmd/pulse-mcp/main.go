// Command pulse-mcp starts the analytics MCP server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/revenuepulse/pulse-mcp/internal/audit"
	"github.com/revenuepulse/pulse-mcp/internal/config"
	"github.com/revenuepulse/pulse-mcp/internal/logger"
	"github.com/revenuepulse/pulse-mcp/internal/mcp"
	"github.com/revenuepulse/pulse-mcp/internal/server"
	"github.com/revenuepulse/pulse-mcp/internal/stdio"
	"github.com/revenuepulse/pulse-mcp/internal/tools"
	"github.com/revenuepulse/pulse-mcp/internal/tools/reports"
	"github.com/revenuepulse/pulse-mcp/internal/upstream"
)

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	transport := flag.String("transport", "http", "Transport to serve on: http or stdio")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *configPath != "" {
		if err := config.Watch(ctx, *configPath); err != nil {
			logger.Warn("config watch unavailable", "error", err)
		}
	}

	client, err := upstream.New(cfg.UpstreamURL, cfg.UpstreamToken, nil)
	if err != nil {
		log.Fatalf("Failed to create upstream client: %v", err)
	}

	registry := tools.NewRegistry()
	for _, tool := range reports.GetTools(client) {
		if err := registry.Register(tool); err != nil {
			log.Fatalf("Failed to register tool: %v", err)
		}
	}

	var recorder mcp.Recorder
	var stats server.StatsSource
	if cfg.AuditDB != "" {
		store, err := audit.Open(cfg.AuditDB)
		if err != nil {
			log.Fatalf("Failed to open audit store: %v", err)
		}
		defer store.Close()
		recorder = store
		stats = store
	}

	handler := mcp.NewHandler(registry, recorder)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	switch *transport {
	case "stdio":
		logger.Info("serving on stdio")
		if err := stdio.New(handler).Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("stdio transport error: %v", err)
		}
	case "http":
		srv := server.New(server.Config{Token: cfg.Token}, handler, stats)
		if cfg.Token == "" {
			logger.Warn("MCP_TOKEN not set; protocol endpoints are open")
		}
		logger.Info("serving HTTP", "port", cfg.Port)
		if err := srv.ListenAndServe(ctx, ":"+cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	default:
		log.Fatalf("Invalid transport: %s", *transport)
	}
}
