package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/messaging"
)

// Deduper remembers which events have already been applied.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// StockReconciler commits stock for created orders by restocking the
// ordered item with a negative amount on the inventory service.
type StockReconciler struct {
	inventoryServiceURL string
	httpClient          *http.Client
	dedup               Deduper
	logger              *slog.Logger
}

// NewStockReconciler builds the handler. dedup may be nil, in which case
// redelivered events are applied again.
func NewStockReconciler(inventoryServiceURL string, client *http.Client, dedup Deduper, logger *slog.Logger) *StockReconciler {
	return &StockReconciler{
		inventoryServiceURL: inventoryServiceURL,
		httpClient:          client,
		dedup:               dedup,
		logger:              logger,
	}
}

func (h *StockReconciler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %v: %w", err, messaging.ErrPermanent)
	}
	if event.ItemID == "" || event.Quantity <= 0 {
		return fmt.Errorf("order %s has no item or quantity: %w", event.OrderID, messaging.ErrPermanent)
	}

	if h.dedup != nil && event.EventID != "" {
		seen, err := h.dedup.Seen(ctx, event.EventID)
		if err != nil {
			return fmt.Errorf("check event %s: %w", event.EventID, err)
		}
		if seen {
			h.logger.Info("skipping already applied event", "event_id", event.EventID, "order_id", event.OrderID)
			return nil
		}
	}

	stock, err := h.commitStock(ctx, event)
	if err != nil {
		h.logger.Error("failed to commit stock", "error", err, "order_id", event.OrderID, "item_id", event.ItemID)
		return err
	}

	if h.dedup != nil && event.EventID != "" {
		if err := h.dedup.Mark(ctx, event.EventID); err != nil {
			h.logger.Error("failed to mark event applied", "error", err, "event_id", event.EventID)
		}
	}

	h.logger.Info("stock committed", "order_id", event.OrderID, "item_id", event.ItemID, "quantity", event.Quantity, "stock", stock)
	return nil
}

type restockResponse struct {
	CurrentStock int `json:"currentStock"`
}

func (h *StockReconciler) commitStock(ctx context.Context, event domain.OrderCreatedEvent) (int, error) {
	data, err := json.Marshal(map[string]int{"amount": -event.Quantity})
	if err != nil {
		return 0, fmt.Errorf("marshal restock request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/items/%s/restock", h.inventoryServiceURL, url.PathEscape(event.ItemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create restock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("restock item %s: %w", event.ItemID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("item %s unknown to inventory: %w", event.ItemID, messaging.ErrPermanent)
	case resp.StatusCode == http.StatusBadRequest:
		return 0, fmt.Errorf("inventory rejected restock of item %s: %w", event.ItemID, messaging.ErrPermanent)
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("inventory service returned status %d for item %s", resp.StatusCode, event.ItemID)
	}

	var body restockResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode restock response: %w", err)
	}
	return body.CurrentStock, nil
}
