// Package inventory reconciles product stock against what other carts hold.
//
// A unit sitting in any cart counts as reserved for that cart until the cart
// is checked out or the line is removed. There is no expiry.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/PePeVeraz-ux/barcoda/models"
	"gorm.io/gorm"
)

// Validation is the outcome of checking one requested quantity.
type Validation struct {
	Available      bool   `json:"available"`
	AvailableStock int    `json:"availableStock"`
	Message        string `json:"message,omitempty"`
}

// Issue describes a cart line that can no longer be fulfilled.
type Issue struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

type CartValidation struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// AvailableStock returns max(0, stock - units held by carts other than
// excludeCartID). An empty excludeCartID counts every cart. A missing
// product has no stock.
func AvailableStock(ctx context.Context, db *gorm.DB, productID, excludeCartID string) (int, error) {
	var product models.Product
	err := db.WithContext(ctx).Select("id", "stock").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load product %s: %w", productID, err)
	}

	reserved, err := reservedElsewhere(ctx, db, productID, excludeCartID)
	if err != nil {
		return 0, err
	}
	return max(0, product.Stock-reserved), nil
}

func reservedElsewhere(ctx context.Context, db *gorm.DB, productID, excludeCartID string) (int, error) {
	query := db.WithContext(ctx).Model(&models.CartItem{}).Where("product_id = ?", productID)
	if excludeCartID != "" {
		query = query.Where("cart_id <> ?", excludeCartID)
	}

	var reserved int64
	if err := query.Select("COALESCE(SUM(quantity), 0)").Scan(&reserved).Error; err != nil {
		return 0, fmt.Errorf("sum reservations for %s: %w", productID, err)
	}
	return int(reserved), nil
}

// ValidateQuantity checks whether cartID may hold requested units of the
// product.
func ValidateQuantity(ctx context.Context, db *gorm.DB, productID string, requested int, cartID string) (Validation, error) {
	available, err := AvailableStock(ctx, db, productID, cartID)
	if err != nil {
		return Validation{}, err
	}
	if requested <= available {
		return Validation{Available: true, AvailableStock: available}, nil
	}
	return Validation{
		Available:      false,
		AvailableStock: available,
		Message:        ShortageMessage(available),
	}, nil
}

// ShortageMessage tells the customer how many units are left.
func ShortageMessage(available int) string {
	if available <= 0 {
		return "This product is no longer available"
	}
	return fmt.Sprintf("Only %d unit(s) available", available)
}

// ValidateCart checks every line of the cart against current stock. Lines
// whose product disappeared are reported with zero availability, and lines
// holding less than one unit are always reported.
func ValidateCart(ctx context.Context, db *gorm.DB, cartID string) (CartValidation, error) {
	var items []models.CartItem
	if err := db.WithContext(ctx).Preload("Product").Where("cart_id = ?", cartID).Order("created_at").Find(&items).Error; err != nil {
		return CartValidation{}, fmt.Errorf("load cart %s: %w", cartID, err)
	}

	result := CartValidation{Valid: true, Issues: []Issue{}}
	for _, item := range items {
		available, err := AvailableStock(ctx, db, item.ProductID, cartID)
		if err != nil {
			return CartValidation{}, err
		}
		if item.Quantity >= 1 && item.Quantity <= available {
			continue
		}

		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		result.Valid = false
		result.Issues = append(result.Issues, Issue{
			ProductID:   item.ProductID,
			ProductName: name,
			Requested:   item.Quantity,
			Available:   available,
		})
	}
	return result, nil
}

// DecrementStock subtracts quantity in a single statement, flooring at zero.
// Concurrent decrements never lose updates.
func DecrementStock(ctx context.Context, db *gorm.DB, productID string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	err := db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", quantity, quantity)).Error
	if err != nil {
		return fmt.Errorf("decrement stock of %s: %w", productID, err)
	}
	return nil
}
