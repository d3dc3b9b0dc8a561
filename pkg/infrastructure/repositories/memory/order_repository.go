package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// OrderRepository provides in-memory order storage
type OrderRepository struct {
	mu        sync.RWMutex
	orders    []entities.Order
	ordersMap map[entities.OrderID]int
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository(expectedOrders int) *OrderRepository {
	return &OrderRepository{
		orders:    make([]entities.Order, 0, expectedOrders),
		ordersMap: make(map[entities.OrderID]int, expectedOrders),
	}
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// LoadOrders loads orders into the repository. A repeated id replaces the
// earlier order.
func (r *OrderRepository) LoadOrders(orders []*entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range orders {
		if order == nil {
			return fmt.Errorf("cannot load nil order")
		}
		if i, ok := r.ordersMap[order.ID]; ok {
			r.orders[i] = *order
			continue
		}
		r.ordersMap[order.ID] = len(r.orders)
		r.orders = append(r.orders, *order)
	}
	return nil
}

// GetOrder returns a copy of the order
func (r *OrderRepository) GetOrder(id entities.OrderID) (*entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.ordersMap[id]
	if !exists {
		return nil, fmt.Errorf("order %s: %w", id, repositories.ErrNotFound)
	}
	order := r.orders[index]
	return &order, nil
}

// GetAllOrders returns copies of all orders sorted by id
func (r *OrderRepository) GetAllOrders() ([]*entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*entities.Order, 0, len(r.orders))
	for i := range r.orders {
		order := r.orders[i]
		orders = append(orders, &order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

// ReplaceRampUp replaces an order's ramp-up scheme wholesale
func (r *OrderRepository) ReplaceRampUp(id entities.OrderID, scheme entities.RampUpScheme) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.ordersMap[id]
	if !exists {
		return fmt.Errorf("order %s: %w", id, repositories.ErrNotFound)
	}
	return r.orders[index].ReplaceRampUp(scheme)
}
