package orderControllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/PePeVeraz-ux/barcoda/idempotency"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

// IdempotencyGuard is satisfied by *idempotency.Guard.
type IdempotencyGuard interface {
	Begin(ctx context.Context, scope, key string) ([]byte, error)
	Complete(ctx context.Context, scope, key string, response []byte) error
	Release(ctx context.Context, scope, key string) error
}

// Feed is satisfied by *realtime.Hub.
type Feed interface {
	Broadcast(eventType string, data any)
}

// CheckoutOptions wires the collaborators of order placement. Guard and Feed
// are optional.
type CheckoutOptions struct {
	HandoffDestination string
	Guard              IdempotencyGuard
	Feed               Feed
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/orders
func PlaceOrderHandler(db *gorm.DB, log *zap.Logger, opts CheckoutOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := auth.CallerID(c)

		var input PlaceOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			verr := apperr.Binding(err)
			if _, itemized := verr.Fields["fields"]; itemized {
				verr.Message = shippingIncomplete
			}
			apperr.Respond(c, log, "order.place", verr)
			return
		}

		key := c.GetHeader(IdempotencyHeader)
		guarded := key != "" && opts.Guard != nil
		if guarded {
			replay, err := opts.Guard.Begin(ctx, userID, key)
			switch {
			case errors.Is(err, idempotency.ErrInProgress):
				apperr.Respond(c, log, "order.place", apperr.Conflict("a request with this idempotency key is already in progress"))
				return
			case err != nil:
				// Redis trouble must not block checkout.
				log.Warn("idempotency guard unavailable", zap.String("user_id", userID), zap.Error(err))
				guarded = false
			case replay != nil:
				c.Data(http.StatusOK, "application/json; charset=utf-8", replay)
				return
			}
		}

		placement, order, err := PlaceOrder(ctx, db, userID, input, opts.HandoffDestination)
		if err != nil {
			if guarded {
				if relErr := opts.Guard.Release(ctx, userID, key); relErr != nil {
					log.Warn("release idempotency key", zap.String("user_id", userID), zap.Error(relErr))
				}
			}
			apperr.Respond(c, log, "order.place", err,
				zap.String("user_id", userID), zap.String("cart_id", input.CartID))
			return
		}

		body, err := json.Marshal(placement)
		if err != nil {
			apperr.Respond(c, log, "order.place", apperr.Internal("order.place.encode", err),
				zap.String("order_id", order.ID))
			return
		}
		if guarded {
			if err := opts.Guard.Complete(ctx, userID, key, body); err != nil {
				log.Warn("store idempotent response", zap.String("order_id", order.ID), zap.Error(err))
			}
		}

		log.Info("order placed",
			zap.String("order_id", order.ID),
			zap.String("user_id", userID),
			zap.String("total", order.Total.StringFixed(2)))
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)

		if opts.Feed != nil {
			opts.Feed.Broadcast(EventOrderCreated, order)
		}
	}
}

// GET /api/orders
func GetUserOrdersHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.CallerID(c)

		orders, err := ListForUser(c.Request.Context(), db, userID)
		if err != nil {
			apperr.Respond(c, log, "order.list", err, zap.String("user_id", userID))
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// GET /api/orders/:id
func GetOrderByIDHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		order, err := Get(c.Request.Context(), db, auth.CallerID(c), auth.IsAdmin(c), orderID)
		if err != nil {
			apperr.Respond(c, log, "order.get", err, zap.String("order_id", orderID))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

// GET /api/admin/orders?status=&limit=&offset=
func GetAllOrdersHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseListFilter(c)
		if err != nil {
			apperr.Respond(c, log, "order.list", err)
			return
		}

		orders, err := List(c.Request.Context(), db, filter)
		if err != nil {
			apperr.Respond(c, log, "order.list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func parseListFilter(c *gin.Context) (ListFilter, error) {
	var f ListFilter
	if s := c.Query("status"); s != "" {
		status, err := models.ParseOrderStatus(s)
		if err != nil {
			return f, apperr.Validation("invalid order status")
		}
		f.Status = status
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, apperr.Validation("invalid limit")
		}
		f.Limit = n
	}
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, apperr.Validation("invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}

// PATCH /api/admin/orders/:id/status
func UpdateOrderStatusHandler(db *gorm.DB, log *zap.Logger, feed Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, log, "order.status", apperr.Binding(err))
			return
		}

		order, err := UpdateStatus(c.Request.Context(), db, orderID, req.Status)
		if err != nil {
			apperr.Respond(c, log, "order.status", err, zap.String("order_id", orderID))
			return
		}

		log.Info("order status updated",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
			zap.String("by", auth.CallerID(c)))
		c.JSON(http.StatusOK, gin.H{"order": order})

		if feed != nil {
			feed.Broadcast(EventOrderUpdated, gin.H{"id": order.ID, "status": order.Status})
		}
	}
}
