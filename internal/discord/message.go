package discord

import (
	"fmt"
	"strings"

	"github.com/mythicmarket/market-backend/internal/order"
)

// maxFieldLen clamps user-supplied fields so a hostile order cannot blow
// past Discord's message-size limits.
const maxFieldLen = 1000

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"|", `\|`,
	">", `\>`,
)

// Sanitize escapes markdown styling characters and neutralizes mention
// triggers in user-supplied text, then clamps the result.
func Sanitize(s string) string {
	s = markdownEscaper.Replace(s)
	// a zero-width space after @ stops @everyone/@here and user pings
	s = strings.ReplaceAll(s, "@", "@\u200b")
	return Clamp(s, maxFieldLen)
}

// Clamp truncates s to at most limit runes, marking the cut.
func Clamp(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// FormatOrderMessage builds the notification posted to Discord for a new
// order. All free-text fields go through Sanitize.
func FormatOrderMessage(ord order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**New order %s**\n", Sanitize(ord.OrderNumber))
	fmt.Fprintf(&b, "Customer: %s (%s)\n", Sanitize(ord.Customer.Name), Sanitize(ord.Customer.Handle))
	for _, it := range ord.Items {
		fmt.Fprintf(&b, "- %s x%d @ %.2f\n", Sanitize(it.Name), it.Quantity, it.UnitPrice)
	}
	method := ord.Shipping.Method
	if method == "" {
		method = "Standard"
	}
	fmt.Fprintf(&b, "Shipping: %s\n", Sanitize(method))
	fmt.Fprintf(&b, "Payment: %s\n", Sanitize(ord.Payment.Method))
	fmt.Fprintf(&b, "Total: %s", ord.Total().StringFixed(2))
	return b.String()
}
