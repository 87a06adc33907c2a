package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            string              `gorm:"primaryKey;size:36" json:"id"`
	Code          string              `gorm:"size:64;not null;uniqueIndex" json:"code"` // stored uppercase
	Description   string              `json:"description"`
	DiscountType  DiscountType        `gorm:"size:16;not null" json:"discount_type"`
	DiscountValue decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinSubtotal   decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"min_subtotal"`
	MaxSubtotal   decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"max_subtotal"`
	Active        bool                `gorm:"not null" json:"active"`
	ValidFrom     *time.Time          `json:"valid_from"`
	ValidTo       *time.Time          `json:"valid_to"`
	CreatedAt     time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
