package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/config"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/httpx"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/messaging"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/orders"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/telemetry"
)

func main() {
	cfg, err := config.LoadOrders()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", "0.1.0", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	reg := telemetry.NewRegistry()
	shutdownMeter, err := telemetry.InitMeterProvider(reg, "orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	httpClient := &http.Client{
		Timeout:   cfg.InventoryTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	inventoryClient, err := orders.NewInventoryClient(cfg.InventoryURL, httpClient, cfg.InventoryTimeout)
	if err != nil {
		logger.Error("failed to create inventory client", "error", err)
		os.Exit(1)
	}

	// Left as a nil interface when Kafka is not configured.
	var publisher orders.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
		logger.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic)
	}

	repo := orders.NewOrderRepository(orders.SeedOrders())
	service := orders.NewService(repo, inventoryClient, publisher, telemetry.NewOrderMetrics(reg), logger)
	handler := orders.NewHandler(service, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /health", httpx.Health("Orders Service Healthy"))
	mux.Handle("GET /metrics", telemetry.MetricsHandler(reg))

	server := httpx.NewServer(cfg.Port, httpx.Wrap(mux, "orders"))

	logger.Info("starting orders service", "port", cfg.Port, "inventory_url", cfg.InventoryURL)
	if err := httpx.Serve(ctx, server, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
