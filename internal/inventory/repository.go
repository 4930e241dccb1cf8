package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
)

var ErrItemNotFound = errors.New("item not found")

// SeedItems is the catalog the service starts with.
func SeedItems() []domain.Item {
	return []domain.Item{
		{ID: "1", Name: "MacBook Pro", Stock: 10, Price: 1200},
		{ID: "2", Name: "iPhone 15", Stock: 0, Price: 900},
		{ID: "3", Name: "Magic Mouse", Stock: 25, Price: 50},
	}
}

// InventoryRepository keeps the catalog in memory for the lifetime of the
// process. Items keep their seed order.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
	order []string
}

func NewInventoryRepository(seed []domain.Item) *InventoryRepository {
	r := &InventoryRepository{
		items: make(map[string]*domain.Item, len(seed)),
		order: make([]string, 0, len(seed)),
	}
	for _, item := range seed {
		if _, ok := r.items[item.ID]; ok {
			continue
		}
		item := item
		r.items[item.ID] = &item
		r.order = append(r.order, item.ID)
	}
	return r
}

func (r *InventoryRepository) ListAll(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, *r.items[id])
	}
	return items, nil
}

func (r *InventoryRepository) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return domain.Item{}, ErrItemNotFound
	}
	return *item, nil
}

// Restock adds amount to the item's stock and returns the new level.
// Negative amounts are applied as-is; stock has no floor.
func (r *InventoryRepository) Restock(ctx context.Context, itemID string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return 0, ErrItemNotFound
	}
	item.Stock += amount
	return item.Stock, nil
}
