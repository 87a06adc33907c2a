package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the single reusable basket of a user. It is never deleted; checkout
// and coupon removal only reset the coupon fields.
type Cart struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	UserID         string          `gorm:"size:64;not null;uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	CouponID       *string         `gorm:"size:36" json:"coupon_id"`
	CouponCode     *string         `gorm:"size:64" json:"coupon_code"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartItem is unique per (cart, product); re-adding a product bumps Quantity.
type CartItem struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CartID    string    `gorm:"size:36;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID string    `gorm:"size:36;not null;uniqueIndex:idx_cart_product;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	return nil
}
