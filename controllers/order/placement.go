package orderControllers

import (
	"context"
	"errors"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/inventory"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/PePeVeraz-ux/barcoda/shipping"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlaceOrderInput struct {
	CartID     string `json:"cartId" binding:"required"`
	FullName   string `json:"fullName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

const shippingIncomplete = "Shipping details are incomplete"

// Validate trims every field and reports the ones left empty.
func (in *PlaceOrderInput) Validate() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"cartId", &in.CartID},
		{"fullName", &in.FullName},
		{"address", &in.Address},
		{"city", &in.City},
		{"postalCode", &in.PostalCode},
		{"phone", &in.Phone},
	}

	var missing []apperr.FieldError
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, apperr.FieldError{Field: f.name, Message: "is required"})
		}
	}
	if len(missing) > 0 {
		return apperr.Validation(shippingIncomplete, missing...)
	}
	return nil
}

// Placement is returned to the customer after checkout.
type Placement struct {
	OrderID            string            `json:"orderId"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	Discount           decimal.Decimal   `json:"discount"`
	Total              decimal.Decimal   `json:"total"`
	Shipping           shipping.Estimate `json:"shipping"`
	HandoffDestination string            `json:"handoffDestination"`
	HandoffMessage     string            `json:"handoffMessage"`
	HandoffURL         string            `json:"handoffUrl"`
}

// PlaceOrder turns the user's cart into an order. Stock check, order rows,
// stock decrement and cart reset commit together or not at all; the cart row
// stays locked for the duration so concurrent checkouts of one cart
// serialize.
func PlaceOrder(ctx context.Context, db *gorm.DB, userID string, in PlaceOrderInput, destination string) (*Placement, *models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		order    models.Order
		estimate shipping.Estimate
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, "id = ?", in.CartID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("cart")
		}
		if err != nil {
			return apperr.Internal("order.place.cart", err)
		}
		if cart.UserID != userID {
			return apperr.Forbidden("this cart does not belong to you")
		}

		var items []models.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("created_at").Find(&items).Error; err != nil {
			return apperr.Internal("order.place.items", err)
		}
		if len(items) == 0 {
			return apperr.Validation("The cart is empty")
		}

		check, err := inventory.ValidateCart(ctx, tx, cart.ID)
		if err != nil {
			return apperr.Internal("order.place.stock", err)
		}
		if !check.Valid {
			return apperr.Conflict("Insufficient stock").With("issues", check.Issues)
		}

		subtotal := pricing.Subtotal(pricing.CartLines(items))
		discount := pricing.ClampDiscount(cart.DiscountAmount, subtotal)
		estimate = shipping.Calculate(items)

		order = models.Order{
			UserID:             userID,
			Subtotal:           subtotal,
			DiscountAmount:     discount,
			Total:              pricing.Total(subtotal, discount),
			ShippingWeight:     estimate.TotalWeight,
			ShippingBoxes:      estimate.Boxes,
			Status:             models.OrderStatusPending,
			ShippingName:       in.FullName,
			ShippingAddress:    in.Address,
			ShippingCity:       in.City,
			ShippingPostalCode: in.PostalCode,
			ShippingPhone:      in.Phone,
			CouponID:           cart.CouponID,
			CouponCode:         cart.CouponCode,
		}
		for _, item := range items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   pricing.UnitPrice(item.Product),
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("order.place.create", err)
		}

		for _, item := range items {
			if err := inventory.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return apperr.Internal("order.place.decrement", err)
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return apperr.Internal("order.place.clear", err)
		}
		err = tx.Model(&cart).Updates(map[string]any{
			"coupon_id":       nil,
			"coupon_code":     nil,
			"discount_amount": decimal.Zero,
		}).Error
		if err != nil {
			return apperr.Internal("order.place.reset", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	message := HandoffMessage(&order)
	return &Placement{
		OrderID:            order.ID,
		Subtotal:           order.Subtotal,
		Discount:           order.DiscountAmount,
		Total:              order.Total,
		Shipping:           estimate,
		HandoffDestination: destination,
		HandoffMessage:     message,
		HandoffURL:         HandoffURL(destination, message),
	}, &order, nil
}
