package orders

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// SeedOrders returns the orders the service starts with.
func SeedOrders() []domain.Order {
	first, second := 1200.0, 50.0
	return []domain.Order{
		{
			ID:         "1",
			ItemID:     "1",
			Quantity:   1,
			Status:     domain.OrderStatusCompleted,
			CreatedAt:  time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC),
			TotalPrice: &first,
		},
		{
			ID:         "2",
			ItemID:     "3",
			Quantity:   2,
			Status:     domain.OrderStatusProcessing,
			CreatedAt:  time.Date(2026, time.January, 14, 10, 30, 0, 0, time.UTC),
			TotalPrice: &second,
		},
	}
}

// OrderRepository is an append-only, in-memory order log. Ids are decimal
// strings handed out under the write lock, so concurrent creates never
// share an id.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []domain.Order
	byID   map[string]int
	nextID int
}

func NewOrderRepository(seed []domain.Order) *OrderRepository {
	r := &OrderRepository{
		orders: make([]domain.Order, 0, len(seed)),
		byID:   make(map[string]int, len(seed)),
		nextID: len(seed) + 1,
	}
	for _, order := range seed {
		if _, ok := r.byID[order.ID]; ok {
			continue
		}
		r.byID[order.ID] = len(r.orders)
		r.orders = append(r.orders, order)
		if n, err := strconv.Atoi(order.ID); err == nil && n >= r.nextID {
			r.nextID = n + 1
		}
	}
	return r
}

// Create assigns order.ID and appends the order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := strconv.Itoa(r.nextID)
	for {
		if _, taken := r.byID[id]; !taken {
			break
		}
		r.nextID++
		id = strconv.Itoa(r.nextID)
	}
	r.nextID++

	order.ID = id
	r.byID[id] = len(r.orders)
	r.orders = append(r.orders, *order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	return r.orders[idx], nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]domain.Order, len(r.orders))
	copy(orders, r.orders)
	return orders, nil
}
