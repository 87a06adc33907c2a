package routes

import (
	cartControllers "github.com/PePeVeraz-ux/barcoda/controllers/cart"
	couponControllers "github.com/PePeVeraz-ux/barcoda/controllers/coupon"
	productcontroller "github.com/PePeVeraz-ux/barcoda/controllers/product"
	wishlistControllers "github.com/PePeVeraz-ux/barcoda/controllers/wishlist"
	"github.com/PePeVeraz-ux/barcoda/middleware"
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers the customer endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, deps Dependencies) {
	db, log := deps.DB, deps.Log

	api := r.Group("/api")
	api.Use(middleware.ValidateToken(deps.JWTSecret, log))
	{
		// ──────────────── Browse Products ────────────────
		api.GET("/products", productcontroller.GetProducts(db, log))
		api.GET("/products/:id", productcontroller.GetProductByID(db, log))
		api.GET("/categories", productcontroller.GetCategories(db, log))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := api.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(db, log))
			cartGroup.POST("/items", cartControllers.AddCartItem(db, log))
			cartGroup.PATCH("/items/:id", cartControllers.UpdateCartItem(db, log))
			cartGroup.DELETE("/items/:id", cartControllers.DeleteCartItem(db, log))
			cartGroup.POST("/validate", cartControllers.ValidateCartStock(db, log))
		}

		// ──────────────── Coupons ────────────────
		api.POST("/coupons/apply", couponControllers.ApplyCartCoupon(db, log))
		api.DELETE("/coupons/apply", couponControllers.RemoveCartCoupon(db, log))

		// ──────────────── Wishlist ────────────────
		wishlistGroup := api.Group("/wishlist")
		{
			wishlistGroup.GET("", wishlistControllers.GetWishlist(db, log))
			wishlistGroup.POST("", wishlistControllers.AddToWishlist(db, log))
			wishlistGroup.DELETE("/:productId", wishlistControllers.RemoveFromWishlist(db, log))
		}
	}
}
