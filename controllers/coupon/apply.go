package couponControllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	cartControllers "github.com/PePeVeraz-ux/barcoda/controllers/cart"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultApplyMessage = "Coupon applied successfully"

type ApplyResult struct {
	CouponCode     string          `json:"couponCode"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message"`
}

// FindByCode looks a coupon up by code, ignoring case.
func FindByCode(ctx context.Context, db *gorm.DB, code string) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	var coupon models.Coupon
	err := db.WithContext(ctx).Where("UPPER(code) = ?", normalized).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("coupon")
	}
	if err != nil {
		return nil, apperr.Internal("coupon.find", err)
	}
	return &coupon, nil
}

// CheckUsable verifies the coupon is switched on and inside its validity
// window at now.
func CheckUsable(c *models.Coupon, now time.Time) error {
	if !c.Active {
		return apperr.Validation("This coupon is not active")
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return apperr.Validation("This coupon is not valid yet")
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return apperr.Validation("This coupon has expired")
	}
	return nil
}

// Discount computes the discount the coupon grants on subtotal, clamped so
// the total never goes negative.
func Discount(c *models.Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.LessThan(c.MinSubtotal) {
		return decimal.Zero, apperr.Validation("The subtotal does not reach the minimum for this coupon")
	}
	if c.MaxSubtotal.Valid && subtotal.GreaterThan(c.MaxSubtotal.Decimal) {
		return decimal.Zero, apperr.Validation("The subtotal exceeds the maximum allowed for this coupon")
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount = pricing.Round2(subtotal.Mul(c.DiscountValue).Div(hundred))
	default:
		discount = c.DiscountValue
	}
	discount = decimal.Min(discount, subtotal)

	if !discount.IsPositive() {
		return decimal.Zero, apperr.Validation("This coupon gives no discount for this cart")
	}
	return discount, nil
}

// ApplyCoupon attaches the coupon to the user's cart, replacing any coupon
// already there.
func ApplyCoupon(ctx context.Context, db *gorm.DB, userID, code, cartID string, now time.Time) (*ApplyResult, error) {
	cart, err := cartControllers.LoadOwnedCart(ctx, db, userID, cartID)
	if err != nil {
		return nil, err
	}

	coupon, err := FindByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	if err := CheckUsable(coupon, now); err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, apperr.Validation("The cart is empty")
	}
	subtotal := pricing.Subtotal(pricing.CartLines(cart.Items))

	discount, err := Discount(coupon, subtotal)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(map[string]any{
		"coupon_id":       coupon.ID,
		"coupon_code":     coupon.Code,
		"discount_amount": discount,
	}).Error
	if err != nil {
		return nil, apperr.Internal("coupon.apply", err)
	}

	message := coupon.Description
	if message == "" {
		message = defaultApplyMessage
	}
	return &ApplyResult{CouponCode: coupon.Code, DiscountAmount: discount, Message: message}, nil
}

// RemoveCoupon detaches any coupon from the cart. Removing from a cart
// without a coupon succeeds.
func RemoveCoupon(ctx context.Context, db *gorm.DB, userID, cartID string) error {
	if _, err := cartControllers.LoadOwnedCart(ctx, db, userID, cartID); err != nil {
		return err
	}
	if err := clearCartCoupon(db.WithContext(ctx).Where("id = ?", cartID)); err != nil {
		return apperr.Internal("coupon.remove", err)
	}
	return nil
}

// clearCartCoupon resets the coupon fields on every cart matched by scope.
func clearCartCoupon(scope *gorm.DB) error {
	return scope.Model(&models.Cart{}).Updates(map[string]any{
		"coupon_id":       nil,
		"coupon_code":     nil,
		"discount_amount": decimal.Zero,
	}).Error
}

type ApplyInput struct {
	Code   string `json:"code" binding:"required"`
	CartID string `json:"cartId" binding:"required"`
}

// POST /api/coupons/apply
func ApplyCartCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		var input ApplyInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "coupon.apply", apperr.Binding(err))
			return
		}
		if strings.TrimSpace(input.Code) == "" {
			apperr.Respond(c, log, "coupon.apply", apperr.Validation("code is required",
				apperr.FieldError{Field: "code", Message: "is required"}))
			return
		}

		result, err := ApplyCoupon(c.Request.Context(), db, userID, input.Code, input.CartID, time.Now())
		if err != nil {
			apperr.Respond(c, log, "coupon.apply", err,
				zap.String("user_id", userID), zap.String("cart_id", input.CartID))
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// DELETE /api/coupons/apply
func RemoveCartCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		var input cartControllers.CartRefInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "coupon.remove", apperr.Binding(err))
			return
		}

		if err := RemoveCoupon(c.Request.Context(), db, userID, input.CartID); err != nil {
			apperr.Respond(c, log, "coupon.remove", err,
				zap.String("user_id", userID), zap.String("cart_id", input.CartID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
