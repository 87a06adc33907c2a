package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Order placed, awaiting hand-off confirmation
	OrderStatusProcessing OrderStatus = "processing" // Confirmed and being packed
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled before shipping
)

var ErrInvalidOrderStatus = errors.New("invalid order status")

// orderTransitions lists the statuses reachable from each status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// ParseOrderStatus maps a user supplied string onto a known status.
func ParseOrderStatus(status string) (OrderStatus, error) {
	switch s := OrderStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return s, nil
	default:
		return "", ErrInvalidOrderStatus
	}
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is immutable after creation except for Status.
type Order struct {
	ID                 string          `gorm:"primaryKey;size:36" json:"id"`
	UserID             string          `gorm:"size:64;not null;index" json:"user_id"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	Total              decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	ShippingWeight     decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"shipping_weight"`
	ShippingBoxes      int             `gorm:"not null" json:"shipping_boxes"`
	Status             OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ShippingName       string          `gorm:"not null" json:"shipping_name"`
	ShippingAddress    string          `gorm:"not null" json:"shipping_address"`
	ShippingCity       string          `gorm:"not null" json:"shipping_city"`
	ShippingPostalCode string          `gorm:"not null" json:"shipping_postal_code"`
	ShippingPhone      string          `gorm:"not null" json:"shipping_phone"`
	CouponID           *string         `gorm:"size:36;index" json:"coupon_id"`
	CouponCode         *string         `gorm:"size:64" json:"coupon_code"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem keeps the unit price paid at purchase time; it is never recomputed.
type OrderItem struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID     string          `gorm:"size:36;not null;index" json:"order_id"`
	ProductID   string          `gorm:"size:36;not null;index" json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == "" {
		oi.ID = uuid.NewString()
	}
	return nil
}
