package orderControllers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/shopspring/decimal"
)

const handoffBaseURL = "https://wa.me/"

// HandoffMessage renders the confirmation text the customer sends to the shop
// over the messaging channel.
func HandoffMessage(order *models.Order) string {
	var b strings.Builder

	b.WriteString("Hi! I'd like to confirm my order:\n\n")
	fmt.Fprintf(&b, "Order #%s\n\n", shortID(order.ID))

	b.WriteString("Products:\n")
	for _, item := range order.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		name := item.ProductName
		if name == "" {
			name = "Product"
		}
		fmt.Fprintf(&b, "- %s x%d ($%s)\n", name, item.Quantity, line.StringFixed(2))
	}

	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "Subtotal: $%s\n", order.Subtotal.StringFixed(2))
	if order.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -$%s\n", order.DiscountAmount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total to pay (excluding shipping): $%s\n", order.Total.StringFixed(2))
	b.WriteString("Shipping cost is arranged over chat.\n\n")

	b.WriteString("Shipping details:\n")
	fmt.Fprintf(&b, "Name: %s\n", order.ShippingName)
	fmt.Fprintf(&b, "Address: %s\n", order.ShippingAddress)
	fmt.Fprintf(&b, "City: %s\n", order.ShippingCity)
	fmt.Fprintf(&b, "Postal code: %s\n", order.ShippingPostalCode)
	fmt.Fprintf(&b, "Phone: %s", order.ShippingPhone)

	return b.String()
}

// HandoffURL builds the deep link that opens a chat with destination and the
// message prefilled.
func HandoffURL(destination, message string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return handoffBaseURL + url.PathEscape(destination) + "?text=" + escaped
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
