// Package config reads each binary's settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultInventoryURL  = "http://localhost:5000"
	defaultOTLPEndpoint  = "localhost:4317"
	defaultOrderTopic    = "order.created"
	defaultWorkerGroupID = "stock-reconciler"
)

// Common holds the settings every binary reads.
type Common struct {
	OTLPEndpoint string
	LogLevel     slog.Level
}

type Inventory struct {
	Common
	Port string
}

type Orders struct {
	Common
	Port             string
	InventoryURL     string
	InventoryTimeout time.Duration
	// KafkaBrokers is empty when order events are not published.
	KafkaBrokers []string
	OrderTopic   string
}

type Worker struct {
	Common
	InventoryURL string
	KafkaBrokers []string
	OrderTopic   string
	GroupID      string
	// RedisAddr is empty when redeliveries are not deduplicated.
	RedisAddr string
}

func LoadInventory() (Inventory, error) {
	_ = godotenv.Load()

	common, err := loadCommon()
	if err != nil {
		return Inventory{}, err
	}
	port, err := port("5000")
	if err != nil {
		return Inventory{}, err
	}
	return Inventory{Common: common, Port: port}, nil
}

func LoadOrders() (Orders, error) {
	_ = godotenv.Load()

	common, err := loadCommon()
	if err != nil {
		return Orders{}, err
	}
	port, err := port("8000")
	if err != nil {
		return Orders{}, err
	}
	inventoryURL, err := baseURL("INVENTORY_URL", defaultInventoryURL)
	if err != nil {
		return Orders{}, err
	}

	timeout, err := time.ParseDuration(getenv("INVENTORY_TIMEOUT", "3s"))
	if err != nil {
		return Orders{}, fmt.Errorf("INVENTORY_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Orders{}, fmt.Errorf("INVENTORY_TIMEOUT must be positive, got %s", timeout)
	}

	return Orders{
		Common:           common,
		Port:             port,
		InventoryURL:     inventoryURL,
		InventoryTimeout: timeout,
		KafkaBrokers:     splitCSV(getenv("KAFKA_BROKERS", "")),
		OrderTopic:       getenv("ORDER_CREATED_TOPIC", defaultOrderTopic),
	}, nil
}

func LoadWorker() (Worker, error) {
	_ = godotenv.Load()

	common, err := loadCommon()
	if err != nil {
		return Worker{}, err
	}
	inventoryURL, err := baseURL("INVENTORY_URL", defaultInventoryURL)
	if err != nil {
		return Worker{}, err
	}
	brokers := splitCSV(getenv("KAFKA_BROKERS", ""))
	if len(brokers) == 0 {
		return Worker{}, fmt.Errorf("KAFKA_BROKERS is required")
	}

	return Worker{
		Common:       common,
		InventoryURL: inventoryURL,
		KafkaBrokers: brokers,
		OrderTopic:   getenv("ORDER_CREATED_TOPIC", defaultOrderTopic),
		GroupID:      getenv("WORKER_GROUP_ID", defaultWorkerGroupID),
		RedisAddr:    getenv("REDIS_ADDR", ""),
	}, nil
}

func loadCommon() (Common, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Common{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return Common{
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
		LogLevel:     level,
	}, nil
}

func port(def string) (string, error) {
	p := getenv("PORT", def)
	n, err := strconv.Atoi(p)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("PORT must be a number between 1 and 65535, got %q", p)
	}
	return p, nil
}

func baseURL(key, def string) (string, error) {
	raw := strings.TrimRight(getenv(key, def), "/")
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return raw, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
