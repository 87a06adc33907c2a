// Package testutil wires an in-memory database and seed helpers for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with the schema migrated.
// Each call gets its own database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:barcoda_test_%d?mode=memory&cache=shared", dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// Money parses a literal amount, failing the test on bad input.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ProductOption customises a seeded product.
type ProductOption func(*models.Product)

func WithSale(price string) ProductOption {
	return func(p *models.Product) {
		p.SaleActive = true
		p.SalePrice = decimal.NewNullDecimal(Money(price))
	}
}

func WithWeight(kg string) ProductOption {
	return func(p *models.Product) {
		p.Weight = decimal.NewNullDecimal(Money(kg))
	}
}

func WithCategory(id string) ProductOption {
	return func(p *models.Product) {
		p.CategoryID = &id
	}
}

func SeedProduct(t testing.TB, db *gorm.DB, name, price string, stock int, opts ...ProductOption) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: Money(price), Stock: stock}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func SeedCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

func SeedCart(t testing.TB, db *gorm.DB, userID string) *models.Cart {
	t.Helper()
	c := &models.Cart{UserID: userID}
	require.NoError(t, db.Create(c).Error)
	return c
}

func SeedCartItem(t testing.TB, db *gorm.DB, cartID, productID string, quantity int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CouponOption customises a seeded coupon.
type CouponOption func(*models.Coupon)

func WithMinSubtotal(v string) CouponOption {
	return func(c *models.Coupon) { c.MinSubtotal = Money(v) }
}

func WithMaxSubtotal(v string) CouponOption {
	return func(c *models.Coupon) { c.MaxSubtotal = decimal.NewNullDecimal(Money(v)) }
}

func Inactive() CouponOption {
	return func(c *models.Coupon) { c.Active = false }
}

func SeedCoupon(t testing.TB, db *gorm.DB, code string, kind models.DiscountType, value string, opts ...CouponOption) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:          strings.ToUpper(code),
		DiscountType:  kind,
		DiscountValue: Money(value),
		MinSubtotal:   decimal.Zero,
		Active:        true,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Stock reloads the current stock of a product.
func Stock(t testing.TB, db *gorm.DB, productID string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Select("stock").First(&p, "id = ?", productID).Error)
	return p.Stock
}
