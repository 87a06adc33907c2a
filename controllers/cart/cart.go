package cartControllers

import (
	"net/http"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddItemInput adds one unit when quantity is omitted.
type AddItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateItemInput struct {
	Quantity *int `json:"quantity" binding:"required,min=1"`
}

type CartRefInput struct {
	CartID string `json:"cartId" binding:"required"`
}

// POST /api/cart/items
func AddCartItem(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "cart.add", apperr.Binding(err))
			return
		}

		quantity := 1
		if input.Quantity != nil {
			quantity = *input.Quantity
		}

		item, err := AddItem(c.Request.Context(), db, userID, input.ProductID, quantity)
		if err != nil {
			apperr.Respond(c, log, "cart.add", err,
				zap.String("user_id", userID), zap.String("product_id", input.ProductID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
	}
}

// PATCH /api/cart/items/:id
func UpdateCartItem(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)
		itemID := c.Param("id")

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "cart.update", apperr.Binding(err))
			return
		}

		item, err := SetQuantity(c.Request.Context(), db, userID, itemID, *input.Quantity)
		if err != nil {
			apperr.Respond(c, log, "cart.update", err,
				zap.String("user_id", userID), zap.String("item_id", itemID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
	}
}

// DELETE /api/cart/items/:id
func DeleteCartItem(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)
		itemID := c.Param("id")

		if err := RemoveItem(c.Request.Context(), db, userID, itemID); err != nil {
			apperr.Respond(c, log, "cart.remove", err,
				zap.String("user_id", userID), zap.String("item_id", itemID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GET /api/cart
func GetUserCart(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		snapshot, err := GetSnapshot(c.Request.Context(), db, userID)
		if err != nil {
			apperr.Respond(c, log, "cart.snapshot", err, zap.String("user_id", userID))
			return
		}

		c.JSON(http.StatusOK, snapshot)
	}
}

// POST /api/cart/validate
func ValidateCartStock(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		var input CartRefInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "cart.validate", apperr.Binding(err))
			return
		}

		result, err := CheckCart(c.Request.Context(), db, userID, input.CartID)
		if err != nil {
			apperr.Respond(c, log, "cart.validate", err,
				zap.String("user_id", userID), zap.String("cart_id", input.CartID))
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
