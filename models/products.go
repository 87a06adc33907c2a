package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID             string              `gorm:"primaryKey;size:36" json:"id"`
	Name           string              `gorm:"not null" json:"name"`
	Description    string              `json:"description"`
	ImageURL       string              `json:"image_url"`
	CategoryID     *string             `gorm:"size:36;index" json:"category_id"`
	Price          decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock          int                 `gorm:"not null" json:"stock"`
	Weight         decimal.NullDecimal `gorm:"type:numeric(10,3)" json:"weight"` // kg, nil reads as the shipping default
	SaleActive     bool                `gorm:"not null" json:"sale_active"`
	SalePrice      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	SalePercentage decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"sale_percentage"`
	SaleAppliedAt  *time.Time          `json:"sale_applied_at"`
	SaleAppliedBy  *string             `gorm:"size:64" json:"sale_applied_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
