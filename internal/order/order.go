package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a customer's finalized cart plus shipping and payment
// selections. It is constructed once at checkout and handed around by
// value; nothing mutates it after normalization.
type Order struct {
	OrderNumber string   `json:"orderNumber" validate:"required"`
	Customer    Customer `json:"customer"`
	Shipping    Shipping `json:"shipping"`
	Payment     Payment  `json:"payment"`
	Items       []Item   `json:"items" validate:"required,min=1,dive"`
	Discount    float64  `json:"discount,omitempty" validate:"gte=0"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

type Customer struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone,omitempty"`
	Handle string `json:"handle" validate:"required"`
}

type Shipping struct {
	Address    string  `json:"address,omitempty"`
	City       string  `json:"city,omitempty"`
	PostalCode string  `json:"postalCode,omitempty"`
	Country    string  `json:"country,omitempty"`
	Method     string  `json:"method,omitempty"`
	Cost       float64 `json:"cost" validate:"gte=0"`
}

type Payment struct {
	Method string `json:"method" validate:"required"`
}

// Item is one purchased line. A quantity below 1 or a negative price
// never survives Normalize, so stored orders always satisfy the
// invariants.
type Item struct {
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
}

// NewOrderNumber returns a fresh order number, e.g. "MM-3F2A91BC".
func NewOrderNumber() string {
	id := uuid.NewString()
	return "MM-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

// Normalize fills defaults and coerces item numerics once, at the
// boundary: a missing or negative unit price becomes 0, a quantity below
// 1 becomes 1. An empty item list is left alone for Validate to reject.
func Normalize(ord Order) Order {
	if ord.OrderNumber == "" {
		ord.OrderNumber = NewOrderNumber()
	}
	if ord.CreatedAt == "" {
		ord.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if ord.Discount < 0 {
		ord.Discount = 0
	}
	if ord.Shipping.Cost < 0 {
		ord.Shipping.Cost = 0
	}
	for i := range ord.Items {
		if ord.Items[i].UnitPrice < 0 {
			ord.Items[i].UnitPrice = 0
		}
		if ord.Items[i].Quantity < 1 {
			ord.Items[i].Quantity = 1
		}
	}
	ord.Customer.Handle = strings.TrimSpace(ord.Customer.Handle)
	ord.Customer.Email = strings.TrimSpace(ord.Customer.Email)
	return ord
}

// Subtotal is Σ(unitPrice × quantity) over all items.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		price := decimal.NewFromFloat(it.UnitPrice)
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Total is subtotal − discount + shipping cost. The discount is taken as
// already resolved by the caller, never recomputed here.
func (o Order) Total() decimal.Decimal {
	return o.Subtotal().
		Sub(decimal.NewFromFloat(o.Discount)).
		Add(decimal.NewFromFloat(o.Shipping.Cost))
}

// ItemCount is the total number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
