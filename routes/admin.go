package routes

import (
	couponControllers "github.com/PePeVeraz-ux/barcoda/controllers/coupon"
	orderControllers "github.com/PePeVeraz-ux/barcoda/controllers/order"
	productcontroller "github.com/PePeVeraz-ux/barcoda/controllers/product"
	saleControllers "github.com/PePeVeraz-ux/barcoda/controllers/sale"
	"github.com/PePeVeraz-ux/barcoda/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers all "/api/admin/*" endpoints. Requires a token with the admin role.
func SetupAdminRoutes(r *gin.Engine, deps Dependencies) {
	db, log := deps.DB, deps.Log

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.ValidateToken(deps.JWTSecret, log), middleware.RequireAdmin(log))
	{
		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("", productcontroller.GetProducts(db, log))
			productAdmin.POST("", productcontroller.CreateProductHandler(db, log))
			productAdmin.PATCH("/:id", productcontroller.UpdateProductHandler(db, log))
			productAdmin.DELETE("/:id", productcontroller.DeleteProductHandler(db, log))
			productAdmin.POST("/import", productcontroller.ImportProductsFromExcel(db, log))
			productAdmin.GET("/export", productcontroller.ExportProductsToExcel(db, log))
		}

		// ─────────── Category Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.POST("", productcontroller.CreateCategoryHandler(db, log))
			categoryAdmin.GET("", productcontroller.GetCategories(db, log))
		}

		// ─────────── Coupons ───────────
		couponAdmin := adminGroup.Group("/coupons")
		{
			couponAdmin.GET("", couponControllers.ListCoupons(db, log))
			couponAdmin.POST("", couponControllers.CreateCoupon(db, log))
			couponAdmin.GET("/:id", couponControllers.GetCoupon(db, log))
			couponAdmin.PATCH("/:id", couponControllers.UpdateCoupon(db, log))
			couponAdmin.DELETE("/:id", couponControllers.DeleteCoupon(db, log))
		}

		// ─────────── Bulk Sales ───────────
		adminGroup.POST("/sales/bulk", saleControllers.ApplyBulkSaleHandler(db, log))
		adminGroup.DELETE("/sales/bulk", saleControllers.RevertBulkSaleHandler(db, log))

		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(db, log))
			orderAdmin.GET("/export", orderControllers.ExportOrdersToExcel(db, log))
			orderAdmin.PATCH("/:id/status", orderControllers.UpdateOrderStatusHandler(db, log, deps.feed()))
			if deps.Hub != nil {
				orderAdmin.GET("/ws", deps.Hub.Serve)
			}
		}
	}
}
