package saleControllers

import (
	"context"
	"net/http"
	"time"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeCategory Scope = "category"
	ScopeProducts Scope = "products"
)

type BulkSaleRequest struct {
	Scope      Scope               `json:"scope" binding:"omitempty,oneof=all category products"`
	CategoryID string              `json:"categoryId" binding:"required_if=Scope category"`
	ProductIDs []string            `json:"productIds" binding:"required_if=Scope products"`
	Percentage decimal.NullDecimal `json:"percentage"`
}

// validateScope checks the targeting fields. An empty scope means all
// products.
func (r *BulkSaleRequest) validateScope() error {
	if err := apperr.Check(r); err != nil {
		return err
	}
	if r.Scope == "" {
		r.Scope = ScopeAll
	}
	if r.Scope == ScopeProducts && len(r.ProductIDs) == 0 {
		return apperr.Validation("productIds must contain at least 1 item(s)",
			apperr.FieldError{Field: "productIds", Message: "must contain at least 1 item(s)"})
	}
	return nil
}

func (r *BulkSaleRequest) scoped(tx *gorm.DB) *gorm.DB {
	switch r.Scope {
	case ScopeCategory:
		return tx.Where("category_id = ?", r.CategoryID)
	case ScopeProducts:
		return tx.Where("id IN ?", r.ProductIDs)
	default:
		return tx
	}
}

func (r *BulkSaleRequest) targets(tx *gorm.DB) ([]models.Product, error) {
	var products []models.Product
	if err := r.scoped(tx).Select("id", "price").Find(&products).Error; err != nil {
		return nil, apperr.Internal("sale.targets", err)
	}
	if len(products) == 0 {
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: "no products match the criteria"}
	}
	return products, nil
}

// ApplyBulkSale discounts every product in scope by the request percentage.
// Nothing is written unless every product is updated.
func ApplyBulkSale(ctx context.Context, db *gorm.DB, adminID string, req BulkSaleRequest, now time.Time) (int, error) {
	if !req.Percentage.Valid || !pricing.ValidSalePercentage(req.Percentage.Decimal) {
		return 0, apperr.Validation("percentage must be greater than 0 and less than 100",
			apperr.FieldError{Field: "percentage", Message: "must be between 0 and 100, exclusive"})
	}
	if err := req.validateScope(); err != nil {
		return 0, err
	}

	pct := req.Percentage.Decimal
	updated := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := req.targets(tx)
		if err != nil {
			return err
		}

		for _, p := range products {
			err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
				"sale_price":      pricing.SalePrice(p.Price, pct),
				"sale_active":     true,
				"sale_applied_at": now,
				"sale_applied_by": adminID,
				"sale_percentage": pct,
			}).Error
			if err != nil {
				return apperr.Internal("sale.apply", err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// RevertBulkSale clears the sale from every product in scope.
func RevertBulkSale(ctx context.Context, db *gorm.DB, req BulkSaleRequest) (int, error) {
	if err := req.validateScope(); err != nil {
		return 0, err
	}

	var reverted int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := req.targets(tx)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}

		res := tx.Model(&models.Product{}).Where("id IN ?", ids).Updates(map[string]any{
			"sale_price":      nil,
			"sale_active":     false,
			"sale_applied_at": nil,
			"sale_applied_by": nil,
			"sale_percentage": nil,
		})
		if res.Error != nil {
			return apperr.Internal("sale.revert", res.Error)
		}
		reverted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reverted, nil
}

// POST /api/admin/sales/bulk
func ApplyBulkSaleHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := auth.CallerID(c)

		var req BulkSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, log, "sale.apply", apperr.Binding(err))
			return
		}

		updated, err := ApplyBulkSale(c.Request.Context(), db, adminID, req, time.Now())
		if err != nil {
			apperr.Respond(c, log, "sale.apply", err, zap.String("scope", string(req.Scope)))
			return
		}

		log.Info("bulk sale applied",
			zap.String("scope", string(req.Scope)),
			zap.String("percentage", req.Percentage.Decimal.String()),
			zap.Int("updated", updated),
			zap.String("by", adminID))
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
	}
}

// DELETE /api/admin/sales/bulk
func RevertBulkSaleHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, log, "sale.revert", apperr.Binding(err))
			return
		}

		reverted, err := RevertBulkSale(c.Request.Context(), db, req)
		if err != nil {
			apperr.Respond(c, log, "sale.revert", err, zap.String("scope", string(req.Scope)))
			return
		}

		log.Info("bulk sale reverted", zap.String("scope", string(req.Scope)), zap.Int("updated", reverted))
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": reverted})
	}
}
