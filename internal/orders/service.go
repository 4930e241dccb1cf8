package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
	"github.com/joao-fontenele/orderflow-rest-demo/internal/telemetry"
)

var (
	ErrMissingFields   = errors.New("missing itemId or quantity")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// InsufficientStockError is returned when the checked stock cannot cover
// the requested quantity.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

type StockChecker interface {
	GetItem(ctx context.Context, itemID string) (domain.Item, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service runs the order placement protocol: validate, check stock with the
// inventory service, record the order.
//
// Placing an order does not decrement inventory stock. When a publisher is
// configured, the order.created event lets the reconciliation worker commit
// the stock asynchronously; otherwise stock is only ever checked.
type Service struct {
	repo      *OrderRepository
	inventory StockChecker
	publisher EventPublisher
	metrics   *telemetry.OrderMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the protocol. publisher may be nil.
func NewService(repo *OrderRepository, inventory StockChecker, publisher EventPublisher, metrics *telemetry.OrderMetrics, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		inventory: inventory,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) PlaceOrder(ctx context.Context, itemID string, quantity int) (*domain.Order, error) {
	if itemID == "" || quantity == 0 {
		return nil, ErrMissingFields
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
		s.metrics.OrderFailed()
		if !errors.Is(err, ErrInventoryUnavailable) {
			err = &RemoteError{Kind: KindTransport, Err: err}
		}
		return nil, err
	}

	if item.Stock < quantity {
		return nil, &InsufficientStockError{ItemID: itemID, Requested: quantity, Available: item.Stock}
	}

	order := &domain.Order{
		ItemID:    itemID,
		Quantity:  quantity,
		Status:    domain.OrderStatusCompleted,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	s.metrics.OrderSucceeded()

	if s.publisher != nil {
		event := domain.OrderCreatedEvent{
			EventID:   uuid.NewString(),
			OrderID:   order.ID,
			ItemID:    order.ItemID,
			Quantity:  order.Quantity,
			CreatedAt: order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}
