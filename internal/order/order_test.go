package order

import (
	"strings"
	"testing"
)

func validOrder() Order {
	return Order{
		OrderNumber: "MM-TESTCASE",
		Customer: Customer{
			Name:   "Robin Vale",
			Email:  "robin@example.com",
			Handle: "robin#0001",
		},
		Shipping: Shipping{
			Address:    "1 Mythic Way",
			City:       "Eldenton",
			PostalCode: "10110",
			Country:    "TH",
			Method:     "Express",
			Cost:       5,
		},
		Payment: Payment{Method: "promptpay"},
		Items: []Item{
			{Name: "Dragon mug", UnitPrice: 20, Quantity: 2},
			{Name: "Phoenix pin", UnitPrice: 10, Quantity: 1},
		},
	}
}

func TestTotals(t *testing.T) {
	ord := validOrder()
	if got := ord.Subtotal().StringFixed(2); got != "50.00" {
		t.Fatalf("expected subtotal 50.00, got %s", got)
	}
	// items 20x2 + 10x1, shipping 5, discount 0 -> 55.00
	if got := ord.Total().StringFixed(2); got != "55.00" {
		t.Fatalf("expected total 55.00, got %s", got)
	}

	ord.Discount = 7.5
	if got := ord.Total().StringFixed(2); got != "47.50" {
		t.Fatalf("expected discounted total 47.50, got %s", got)
	}

	if got := ord.ItemCount(); got != 3 {
		t.Fatalf("expected 3 units, got %d", got)
	}
}

func TestNormalizeCoercesItems(t *testing.T) {
	ord := validOrder()
	ord.Items[0].UnitPrice = -3
	ord.Items[1].Quantity = 0

	out := Normalize(ord)
	if out.Items[0].UnitPrice != 0 {
		t.Fatalf("expected negative price coerced to 0, got %v", out.Items[0].UnitPrice)
	}
	if out.Items[1].Quantity != 1 {
		t.Fatalf("expected zero quantity coerced to 1, got %d", out.Items[1].Quantity)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	ord := validOrder()
	ord.OrderNumber = ""
	ord.CreatedAt = ""
	ord.Customer.Handle = "  robin#0001  "

	out := Normalize(ord)
	if out.OrderNumber == "" || !strings.HasPrefix(out.OrderNumber, "MM-") {
		t.Fatalf("expected generated MM- order number, got %q", out.OrderNumber)
	}
	if out.CreatedAt == "" {
		t.Fatalf("expected createdAt to be filled")
	}
	if out.Customer.Handle != "robin#0001" {
		t.Fatalf("expected trimmed handle, got %q", out.Customer.Handle)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	a := NewOrderNumber()
	b := NewOrderNumber()
	if a == b {
		t.Fatalf("expected unique order numbers, got %q twice", a)
	}
	if !strings.HasPrefix(a, "MM-") || len(a) != len("MM-")+8 {
		t.Fatalf("unexpected order number format: %q", a)
	}
	if strings.ToUpper(a) != a {
		t.Fatalf("expected uppercase order number, got %q", a)
	}
}
