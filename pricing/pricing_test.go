package pricing

import (
	"testing"

	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(price string) *models.Product {
	return &models.Product{Name: "Figure", Price: dec(price)}
}

func withSale(p *models.Product, active bool, sale string) *models.Product {
	p.SaleActive = active
	if sale != "" {
		p.SalePrice = decimal.NewNullDecimal(dec(sale))
	}
	return p
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name    string
		product *models.Product
		want    string
	}{
		{"no sale", product("100.00"), "100"},
		{"active sale below base", withSale(product("100.00"), true, "80.00"), "80"},
		{"sale above base ignored", withSale(product("100.00"), true, "120.00"), "100"},
		{"sale equal to base ignored", withSale(product("100.00"), true, "100.00"), "100"},
		{"zero sale ignored", withSale(product("100.00"), true, "0"), "100"},
		{"negative sale ignored", withSale(product("100.00"), true, "-5"), "100"},
		{"active flag without price", withSale(product("100.00"), true, ""), "100"},
		{"stale sale price on inactive product", withSale(product("100.00"), false, "10.00"), "100"},
		{"base rounded to cents", product("19.999"), "20"},
		{"sale rounded to cents", withSale(product("50.00"), true, "33.333"), "33.33"},
		{"nil product", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitPrice(tt.product)
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestSubtotalUsesEffectivePrices(t *testing.T) {
	lines := []Line{
		{Product: withSale(product("60.00"), true, "50.00"), Quantity: 1},
		{Product: product("20.00"), Quantity: 2},
	}

	subtotal := Subtotal(lines)
	assert.True(t, dec("90").Equal(subtotal))

	discount := ClampDiscount(dec("10"), subtotal)
	assert.True(t, dec("80").Equal(Total(subtotal, discount)))
}

func TestCartLinesSkipsUnloadedProducts(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: product("5.00")},
		{Quantity: 7},
	}
	lines := CartLines(items)
	assert.Len(t, lines, 1)
	assert.True(t, dec("10").Equal(Subtotal(lines)))
}

func TestClampDiscount(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ClampDiscount(dec("-3"), dec("40"))))
	assert.True(t, dec("40").Equal(ClampDiscount(dec("55"), dec("40"))))
	assert.True(t, dec("12.5").Equal(ClampDiscount(dec("12.50"), dec("40"))))
}

func TestTotalNeverNegative(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(Total(dec("10"), dec("25"))))
	assert.True(t, dec("15").Equal(Total(dec("25"), dec("10"))))
}

func TestSalePrice(t *testing.T) {
	assert.True(t, dec("30").Equal(SalePrice(dec("40"), dec("25"))))
	assert.True(t, dec("66.66").Equal(SalePrice(dec("99.99"), dec("33.33"))))
}

func TestValidSalePercentage(t *testing.T) {
	assert.False(t, ValidSalePercentage(dec("0")))
	assert.False(t, ValidSalePercentage(dec("100")))
	assert.False(t, ValidSalePercentage(dec("-1")))
	assert.True(t, ValidSalePercentage(dec("0.5")))
	assert.True(t, ValidSalePercentage(dec("99.99")))
}
