// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command cpg starts the CPG slicing API server.
//
// Usage:
//
//	go run ./cmd/cpg
//	go run ./cmd/cpg -port 8092 -source-root /src/libpng
//	go run ./cmd/cpg -config cpg.yaml
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8092/v1/cpg/health
//
//	# Load a CPG record (required first!)
//	curl -X POST http://localhost:8092/v1/cpg/load \
//	  -H "Content-Type: application/json" \
//	  -d '{"path": "/data/libpng_cpg.json"}'
//
//	# Backward slice from a seed node
//	curl -X POST http://localhost:8092/v1/cpg/slice \
//	  -H "Content-Type: application/json" \
//	  -d '{"graph_id": "YOUR_GRAPH_ID", "seed": "1000101", "max_depth": 5}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianCPG/pkg/logging"
	"github.com/AleutianAI/AleutianCPG/services/cpg"
	"github.com/AleutianAI/AleutianCPG/services/cpg/config"
	"github.com/AleutianAI/AleutianCPG/services/cpg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	sourceRoot := flag.String("source-root", "", "Directory source filenames resolve against (overrides config)")
	logDir := flag.String("log-dir", "", "Directory for JSON log files (default stderr only)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	logLevel := "info"
	if *debug {
		logLevel = "debug"
	}
	logger := logging.New(logging.Config{
		Level:   logLevel,
		LogDir:  *logDir,
		Service: "cpg",
	})
	defer logger.Close()
	logger.SetDefault()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *sourceRoot != "" {
		cfg.Graph.SourceRoot = *sourceRoot
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := cpg.NewService(cpg.ServiceConfig{
		MaxCachedGraphs:     cfg.Graph.MaxCachedGraphs,
		GraphTTL:            cfg.Graph.TTL,
		SourceRoot:          cfg.Graph.SourceRoot,
		PrecomputeOwnership: cfg.Graph.PrecomputeOwnership,
	})
	handlers := cpg.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	cpg.RegisterRoutes(v1, handlers)

	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	printBanner(cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Starting CPG server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("Shutting down CPG server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                        CPG SLICING SERVER                         ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Bounded program slicing over Code Property Graphs.               ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/cpg/health                    │  ║
║  │                                                             │  ║
║  │ # Load a CPG record (required first!)                       │  ║
║  │ curl -X POST http://localhost:%d/v1/cpg/load \            │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"path": "/data/your_cpg.json"}'                      │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Lifecycle: /load, /graph/:id, /stats                        ║
║  ├── Slicing: /slice, /trace/*, /neighborhood, /context, /seed   ║
║  └── Lookup: /search, /structure, /skeleton, /method             ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port)
}
