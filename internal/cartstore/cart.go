package cartstore

import (
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
)

const cartKey = "mythic_cart"

// Item is one cart line. It lives from product selection until removal
// or a successful order submission.
type Item struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Cart is the locally persisted list of line items. Every mutation is
// written through to the storage under a fixed key.
type Cart struct {
	mu      sync.Mutex
	storage Storage
	items   []Item
}

// OpenCart loads the persisted cart, starting empty when nothing is
// stored yet.
func OpenCart(storage Storage) (*Cart, error) {
	c := &Cart{storage: storage}
	raw, ok, err := storage.Get(cartKey)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal(raw, &c.items); err != nil {
			// unreadable state starts a fresh cart
			c.items = nil
		}
	}
	return c, nil
}

// Add merges the item into the cart, incrementing the quantity when the
// product is already present. A quantity below 1 counts as 1.
func (c *Cart) Add(item Item) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return c.persistLocked()
		}
	}
	c.items = append(c.items, item)
	return c.persistLocked()
}

// SetQuantity pins the quantity of a line; zero or below removes it.
func (c *Cart) SetQuantity(id, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			if quantity <= 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			} else {
				c.items[i].Quantity = quantity
			}
			return c.persistLocked()
		}
	}
	return nil
}

// Remove deletes the line for the given product.
func (c *Cart) Remove(id int) error {
	return c.SetQuantity(id, 0)
}

// Clear empties the cart; the caller decides when (after a successful
// order submission, not before).
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.storage.Delete(cartKey)
}

// Items returns a snapshot of the current lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Subtotal is Σ(unitPrice × quantity) over the cart.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func (c *Cart) persistLocked() error {
	raw, err := json.Marshal(c.items)
	if err != nil {
		return err
	}
	return c.storage.Set(cartKey, raw)
}
