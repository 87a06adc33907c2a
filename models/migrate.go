package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Money goes over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// AutoMigrate creates or updates every table the storefront owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&WishlistItem{},
	)
}
