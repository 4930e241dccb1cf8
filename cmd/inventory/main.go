package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/config"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/httpx"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/inventory"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/telemetry"
)

func main() {
	cfg, err := config.LoadInventory()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "inventory", "0.1.0", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	reg := telemetry.NewRegistry()
	shutdownMeter, err := telemetry.InitMeterProvider(reg, "inventory", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	repo := inventory.NewInventoryRepository(inventory.SeedItems())
	handler := inventory.NewHandler(repo, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /health", httpx.Health("Inventory Service is Healthy"))
	mux.Handle("GET /metrics", telemetry.MetricsHandler(reg))

	server := httpx.NewServer(cfg.Port, httpx.Wrap(mux, "inventory"))

	logger.Info("starting inventory service", "port", cfg.Port)
	if err := httpx.Serve(ctx, server, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
