// Package pricing resolves the price a customer actually pays for a product.
//
// UnitPrice is the single source of truth for line totals: the cart snapshot,
// coupon evaluation, order placement and catalog reads all go through it so
// that every call site agrees on what a line costs.
package pricing

import (
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is a product with the quantity being bought.
type Line struct {
	Product  *models.Product
	Quantity int
}

// Round2 rounds an amount to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// HasValidSale reports whether the product's sale price should be honoured.
// A sale that is inactive, missing, non-positive or not below the base price is
// ignored rather than rejected.
func HasValidSale(p *models.Product) bool {
	if p == nil || !p.SaleActive || !p.SalePrice.Valid {
		return false
	}
	sale := p.SalePrice.Decimal
	return sale.IsPositive() && sale.LessThan(p.Price)
}

// UnitPrice returns the effective per-unit price, rounded to cents.
func UnitPrice(p *models.Product) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	if HasValidSale(p) {
		return Round2(p.SalePrice.Decimal)
	}
	return Round2(p.Price)
}

func LineTotal(p *models.Product, quantity int) decimal.Decimal {
	return UnitPrice(p).Mul(decimal.NewFromInt(int64(quantity)))
}

// Subtotal sums LineTotal over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Product, l.Quantity))
	}
	return total
}

// CartLines adapts joined cart items to pricing lines. Items whose product
// was not loaded are skipped.
func CartLines(items []models.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for i := range items {
		if items[i].Product == nil {
			continue
		}
		lines = append(lines, Line{Product: items[i].Product, Quantity: items[i].Quantity})
	}
	return lines
}

// ValidSalePercentage reports whether p lies strictly inside (0, 100).
func ValidSalePercentage(p decimal.Decimal) bool {
	return p.IsPositive() && p.LessThan(hundred)
}

// SalePrice computes round(base * (1 - percentage/100), 2).
func SalePrice(base, percentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percentage.Div(hundred))
	return Round2(base.Mul(factor))
}

// ClampDiscount bounds a stored discount to [0, subtotal].
func ClampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal)
}

// Total is max(0, subtotal - discount).
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, subtotal.Sub(discount))
}
