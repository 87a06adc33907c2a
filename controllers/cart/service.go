package cartControllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/inventory"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/PePeVeraz-ux/barcoda/shipping"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotItem is one priced cart line.
type SnapshotItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Snapshot is the priced view of a user's cart.
type Snapshot struct {
	CartID     *string           `json:"cartId"`
	Items      []SnapshotItem    `json:"items"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Discount   decimal.Decimal   `json:"discount"`
	Total      decimal.Decimal   `json:"total"`
	CouponCode *string           `json:"couponCode"`
	ItemCount  int               `json:"itemCount"`
	Shipping   shipping.Estimate `json:"shipping"`
}

// LoadOwnedCart fetches a cart by id with its items and products, and checks
// that it belongs to userID.
func LoadOwnedCart(ctx context.Context, db *gorm.DB, userID, cartID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at") }).
		Preload("Items.Product").
		First(&cart, "id = ?", cartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("cart")
	}
	if err != nil {
		return nil, apperr.Internal("cart.load", err)
	}
	if cart.UserID != userID {
		return nil, apperr.Forbidden("this cart does not belong to you")
	}
	return &cart, nil
}

// ensureCart returns the user's cart, creating it on first use. Concurrent
// first adds converge on the same row through the unique user_id index.
func ensureCart(ctx context.Context, db *gorm.DB, userID string) (*models.Cart, error) {
	fresh := models.Cart{UserID: userID, DiscountAmount: decimal.Zero}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create cart for %s: %w", userID, err)
	}

	var cart models.Cart
	if err := db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("load cart for %s: %w", userID, err)
	}
	return &cart, nil
}

// AddItem puts quantity units of a product into the user's cart, merging with
// an existing line. The resulting line quantity must fit the stock not held
// by other carts.
func AddItem(ctx context.Context, db *gorm.DB, userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1",
			apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	var product models.Product
	err := db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product")
	}
	if err != nil {
		return nil, apperr.Internal("cart.add.product", err)
	}

	cart, err := ensureCart(ctx, db, userID)
	if err != nil {
		return nil, apperr.Internal("cart.add.cart", err)
	}

	var item models.CartItem
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Internal("cart.add.item", err)
		}

		current := 0
		if exists {
			current = item.Quantity
		}

		// Compare against the headroom left beside the existing line so that
		// current+quantity is never computed for an oversized request.
		check, err := inventory.ValidateQuantity(ctx, tx, productID, quantity, cart.ID)
		if err != nil {
			return apperr.Internal("cart.add.validate", err)
		}
		if !check.Available || quantity > check.AvailableStock-current {
			return addConflict(check, current)
		}

		if exists {
			item.Quantity = current + quantity
			if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
				return apperr.Internal("cart.add.update", err)
			}
			return nil
		}

		item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := tx.Create(&item).Error; err != nil {
			return apperr.Internal("cart.add.create", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	item.Product = &product
	return &item, nil
}

func addConflict(check inventory.Validation, current int) *apperr.Error {
	message := check.Message
	if current > 0 {
		remaining := max(0, check.AvailableStock-current)
		message = fmt.Sprintf("You can only add %d unit(s) to your cart (you already have %d)", remaining, current)
	}
	return apperr.Conflict(message).
		With("availableStock", check.AvailableStock).
		With("currentInCart", current)
}

// loadOwnedItem resolves a cart line and checks ownership through its cart.
func loadOwnedItem(ctx context.Context, db *gorm.DB, userID, itemID, op string) (*models.CartItem, *models.Cart, error) {
	var item models.CartItem
	err := db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("cart item")
	}
	if err != nil {
		return nil, nil, apperr.Internal(op, err)
	}

	var cart models.Cart
	if err := db.WithContext(ctx).First(&cart, "id = ?", item.CartID).Error; err != nil {
		return nil, nil, apperr.Internal(op, err)
	}
	if cart.UserID != userID {
		return nil, nil, apperr.Forbidden("this item does not belong to you")
	}
	return &item, &cart, nil
}

// SetQuantity overwrites the quantity of a cart line.
func SetQuantity(ctx context.Context, db *gorm.DB, userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1",
			apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	item, cart, err := loadOwnedItem(ctx, db, userID, itemID, "cart.update")
	if err != nil {
		return nil, err
	}

	check, err := inventory.ValidateQuantity(ctx, db, item.ProductID, quantity, cart.ID)
	if err != nil {
		return nil, apperr.Internal("cart.update.validate", err)
	}
	if !check.Available {
		return nil, apperr.Conflict(check.Message).With("availableStock", check.AvailableStock)
	}

	if err := db.WithContext(ctx).Model(item).Update("quantity", quantity).Error; err != nil {
		return nil, apperr.Internal("cart.update", err)
	}
	item.Quantity = quantity
	return item, nil
}

func RemoveItem(ctx context.Context, db *gorm.DB, userID, itemID string) error {
	item, _, err := loadOwnedItem(ctx, db, userID, itemID, "cart.remove")
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return apperr.Internal("cart.remove", err)
	}
	return nil
}

// BuildSnapshot prices a loaded cart. The stored discount is clamped to the
// current subtotal.
func BuildSnapshot(cart *models.Cart) Snapshot {
	lines := pricing.CartLines(cart.Items)
	subtotal := pricing.Subtotal(lines)
	discount := pricing.ClampDiscount(cart.DiscountAmount, subtotal)

	items := make([]SnapshotItem, 0, len(cart.Items))
	priced := make([]models.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Product == nil {
			continue
		}
		priced = append(priced, it)
		items = append(items, SnapshotItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   it.Product,
			UnitPrice: pricing.UnitPrice(it.Product),
			LineTotal: pricing.LineTotal(it.Product, it.Quantity),
		})
	}

	id := cart.ID
	return Snapshot{
		CartID:     &id,
		Items:      items,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      pricing.Total(subtotal, discount),
		CouponCode: cart.CouponCode,
		ItemCount:  len(items),
		Shipping:   shipping.Calculate(priced),
	}
}

// GetSnapshot returns the priced cart of userID. A user without a cart gets
// an empty snapshot with a nil CartID.
func GetSnapshot(ctx context.Context, db *gorm.DB, userID string) (Snapshot, error) {
	var cart models.Cart
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at") }).
		Preload("Items.Product").
		First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{
			Items:    []SnapshotItem{},
			Subtotal: decimal.Zero,
			Discount: decimal.Zero,
			Total:    decimal.Zero,
			Shipping: shipping.Calculate(nil),
		}, nil
	}
	if err != nil {
		return Snapshot{}, apperr.Internal("cart.snapshot", err)
	}
	return BuildSnapshot(&cart), nil
}

// CheckCart runs the whole-cart stock check on a cart the caller owns.
func CheckCart(ctx context.Context, db *gorm.DB, userID, cartID string) (inventory.CartValidation, error) {
	if _, err := LoadOwnedCart(ctx, db, userID, cartID); err != nil {
		return inventory.CartValidation{}, err
	}
	res, err := inventory.ValidateCart(ctx, db, cartID)
	if err != nil {
		return inventory.CartValidation{}, apperr.Internal("cart.validate", err)
	}
	return res, nil
}
