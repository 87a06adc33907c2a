package routes

import (
	orderControllers "github.com/PePeVeraz-ux/barcoda/controllers/order"
	"github.com/PePeVeraz-ux/barcoda/middleware"
	"github.com/gin-gonic/gin"
)

func SetupOrderRoutes(r *gin.Engine, deps Dependencies) {
	db, log := deps.DB, deps.Log

	orders := r.Group("/api/orders")
	orders.Use(middleware.ValidateToken(deps.JWTSecret, log))
	{
		// Place an order from the caller's cart
		orders.POST("", orderControllers.PlaceOrderHandler(db, log, deps.checkout()))

		// Caller's order history
		orders.GET("", orderControllers.GetUserOrdersHandler(db, log))
		orders.GET("/:id", orderControllers.GetOrderByIDHandler(db, log))
	}
}
