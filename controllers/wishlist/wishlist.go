// Package wishlistControllers keeps the per-user list of saved products.
// Saving a product reserves nothing; stock is only held by carts.
package wishlistControllers

import (
	"context"
	"errors"
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
	"gorm.io/gorm/clause"
)

// Entry is a saved product priced the way the catalog shows it.
type Entry struct {
	ProductID string          `json:"productId"`
	AddedAt   time.Time       `json:"addedAt"`
	Product   *models.Product `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	OnSale    bool            `json:"onSale"`
}

type AddInput struct {
	ProductID string `json:"productId" binding:"required"`
}

// List returns the user's saved products, newest first.
func List(ctx context.Context, db *gorm.DB, userID string) ([]Entry, error) {
	var items []models.WishlistItem
	err := db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, apperr.Internal("wishlist.list", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		entries = append(entries, Entry{
			ProductID: it.ProductID,
			AddedAt:   it.CreatedAt,
			Product:   it.Product,
			UnitPrice: pricing.UnitPrice(it.Product),
			OnSale:    pricing.HasValidSale(it.Product),
		})
	}
	return entries, nil
}

// Add saves the product for the user. It reports false when the product was
// already saved.
func Add(ctx context.Context, db *gorm.DB, userID, productID string) (bool, error) {
	var product models.Product
	err := db.WithContext(ctx).Select("id").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.NotFound("product")
	}
	if err != nil {
		return false, apperr.Internal("wishlist.add.product", err)
	}

	item := models.WishlistItem{UserID: userID, ProductID: productID}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
	if res.Error != nil {
		return false, apperr.Internal("wishlist.add", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Remove drops the product from the user's wishlist. Removing a product that
// is not saved is not an error.
func Remove(ctx context.Context, db *gorm.DB, userID, productID string) error {
	err := db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error
	if err != nil {
		return apperr.Internal("wishlist.remove", err)
	}
	return nil
}

// GET /api/wishlist
func GetWishlist(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		entries, err := List(c.Request.Context(), db, userID)
		if err != nil {
			apperr.Respond(c, log, "wishlist.list", err, zap.String("user_id", userID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": entries, "count": len(entries)})
	}
}

// POST /api/wishlist
func AddToWishlist(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		var input AddInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "wishlist.add", apperr.Binding(err))
			return
		}

		added, err := Add(c.Request.Context(), db, userID, input.ProductID)
		if err != nil {
			apperr.Respond(c, log, "wishlist.add", err,
				zap.String("user_id", userID), zap.String("product_id", input.ProductID))
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"success": true, "added": added})
	}
}

// DELETE /api/wishlist/:productId
func RemoveFromWishlist(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)
		productID := c.Param("productId")

		if err := Remove(c.Request.Context(), db, userID, productID); err != nil {
			apperr.Respond(c, log, "wishlist.remove", err,
				zap.String("user_id", userID), zap.String("product_id", productID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
