package order

import (
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("order not found")
)

// Repository defines persistence operations for accepted orders.
type Repository interface {
	Create(ord Order) (Order, error)
	GetByNumber(number string) (Order, error)

	// List returns the most recent orders, newest first, capped at limit.
	List(limit int) ([]Order, error)

	// ListByNumbers returns the orders whose orderNumber is present in
	// the provided slice, ordered the same way as the argument. An empty
	// slice yields an empty result without touching the store.
	ListByNumbers(numbers []string) ([]Order, error)
}

// InMemoryRepository is used for tests and for running the backend
// without a database.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make([]Order, 0)}
}

func (r *InMemoryRepository) Create(ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, ord)
	return ord, nil
}

func (r *InMemoryRepository) GetByNumber(number string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ord := range r.orders {
		if ord.OrderNumber == number {
			return ord, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) List(limit int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, limit)
	for i := len(r.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.orders[i])
	}
	return out, nil
}

func (r *InMemoryRepository) ListByNumbers(numbers []string) ([]Order, error) {
	if len(numbers) == 0 {
		return []Order{}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(numbers))
	for _, n := range numbers {
		for _, ord := range r.orders {
			if ord.OrderNumber == n {
				out = append(out, ord)
				break
			}
		}
	}
	return out, nil
}
