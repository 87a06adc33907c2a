package orderControllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"gorm.io/gorm"
)

// ListFilter narrows the admin order list. Zero values mean no filter.
type ListFilter struct {
	Status models.OrderStatus
	UserID string
	Limit  int
	Offset int
}

func ListForUser(ctx context.Context, db *gorm.DB, userID string) ([]models.Order, error) {
	return List(ctx, db, ListFilter{UserID: userID})
}

func List(ctx context.Context, db *gorm.DB, f ListFilter) ([]models.Order, error) {
	query := db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		return nil, apperr.Internal("order.list", err)
	}
	return orders, nil
}

// Get loads one order. Customers only see their own orders; admins see all.
func Get(ctx context.Context, db *gorm.DB, userID string, isAdmin bool, orderID string) (*models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, apperr.Internal("order.get", err)
	}
	if !isAdmin && order.UserID != userID {
		// Indistinguishable from a missing order for other customers.
		return nil, apperr.NotFound("order")
	}
	return &order, nil
}

// UpdateStatus moves an order along its lifecycle. Only status ever changes
// after placement.
func UpdateStatus(ctx context.Context, db *gorm.DB, orderID, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, apperr.Validation("invalid order status",
			apperr.FieldError{Field: "status", Message: "must be one of pending, processing, shipped, delivered, cancelled"})
	}

	var order models.Order
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&order, "id = ?", orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return apperr.Internal("order.status", err)
		}

		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return apperr.Internal("order.status", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("order status changed concurrently, reload and retry")
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
