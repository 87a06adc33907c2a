package routes

import (
	"net/http"

	orderControllers "github.com/PePeVeraz-ux/barcoda/controllers/order"
	"github.com/PePeVeraz-ux/barcoda/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the shared collaborators handed to every route group.
// Guard may be nil when no Redis is configured.
type Dependencies struct {
	DB                 *gorm.DB
	Log                *zap.Logger
	JWTSecret          string
	HandoffDestination string
	Guard              orderControllers.IdempotencyGuard
	Hub                *realtime.Hub
}

// SetupRoutes is the single entry-point that wires up the public, customer and admin groups.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Customer routes (JWT-protected)
	SetupUserRoutes(r, deps)

	// Order placement and history
	SetupOrderRoutes(r, deps)

	// Admin routes (JWT with admin role)
	SetupAdminRoutes(r, deps)
}

func (d Dependencies) checkout() orderControllers.CheckoutOptions {
	return orderControllers.CheckoutOptions{
		HandoffDestination: d.HandoffDestination,
		Guard:              d.Guard,
		Feed:               d.feed(),
	}
}

// feed returns the hub as an order feed, or nil when none is configured.
func (d Dependencies) feed() orderControllers.Feed {
	if d.Hub == nil {
		return nil
	}
	return d.Hub
}
