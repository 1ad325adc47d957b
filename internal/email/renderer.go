package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/mythicmarket/market-backend/internal/order"
	"github.com/shopspring/decimal"
)

// Message is a rendered order confirmation, ready for transport.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

const defaultShippingMethod = "Standard"

// Render maps an order to a confirmation message. It is pure: no clock,
// no I/O, and identical input always yields byte-identical output, which
// the golden tests rely on. Missing optional fields fall back to
// defaults instead of failing.
func Render(ord order.Order) Message {
	method := ord.Shipping.Method
	if method == "" {
		method = defaultShippingMethod
	}

	subtotal := ord.Subtotal()
	discount := decimal.NewFromFloat(ord.Discount)
	shipping := decimal.NewFromFloat(ord.Shipping.Cost)
	total := subtotal.Sub(discount).Add(shipping)

	subject := fmt.Sprintf("MythicMarket order %s confirmed", ord.OrderNumber)

	var text strings.Builder
	fmt.Fprintf(&text, "Thanks for your order, %s!\r\n\r\n", ord.Customer.Name)
	fmt.Fprintf(&text, "Order %s\r\n\r\n", ord.OrderNumber)
	for _, it := range ord.Items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(&text, "  %s x%d — %s\r\n", it.Name, it.Quantity, line.StringFixed(2))
	}
	fmt.Fprintf(&text, "\r\nSubtotal: %s\r\n", subtotal.StringFixed(2))
	if discount.IsPositive() {
		fmt.Fprintf(&text, "Discount: -%s\r\n", discount.StringFixed(2))
	}
	fmt.Fprintf(&text, "Shipping (%s): %s\r\n", method, shipping.StringFixed(2))
	fmt.Fprintf(&text, "Total: %s\r\n", total.StringFixed(2))

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Thanks for your order, %s!</h2>", html.EscapeString(ord.Customer.Name))
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong></p>", html.EscapeString(ord.OrderNumber))
	b.WriteString("<table><tbody>")
	for _, it := range ord.Items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(&b, "<tr><td>%s</td><td>x%d</td><td>%s</td></tr>",
			html.EscapeString(it.Name), it.Quantity, line.StringFixed(2))
	}
	b.WriteString("</tbody></table>")
	fmt.Fprintf(&b, "<p>Subtotal: %s</p>", subtotal.StringFixed(2))
	if discount.IsPositive() {
		fmt.Fprintf(&b, "<p>Discount: -%s</p>", discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "<p>Shipping (%s): %s</p>", html.EscapeString(method), shipping.StringFixed(2))
	fmt.Fprintf(&b, "<p><strong>Total: %s</strong></p>", total.StringFixed(2))
	b.WriteString("</body></html>")

	return Message{Subject: subject, Text: text.String(), HTML: b.String()}
}
