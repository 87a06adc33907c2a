package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/PePeVeraz-ux/barcoda/inventory"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogProduct is a product as shown to customers, with the price they
// will actually pay.
type CatalogProduct struct {
	models.Product
	UnitPrice      decimal.Decimal `json:"unit_price"`
	OnSale         bool            `json:"on_sale"`
	AvailableStock *int            `json:"available_stock,omitempty"`
}

func toCatalog(p models.Product) CatalogProduct {
	return CatalogProduct{
		Product:   p,
		UnitPrice: pricing.UnitPrice(&p),
		OnSale:    pricing.HasValidSale(&p),
	}
}

// CatalogFilter narrows the product list. Zero values mean no filter.
type CatalogFilter struct {
	CategoryID string
	Search     string
	OnSale     bool
	InStock    bool
}

func ListCatalog(ctx context.Context, db *gorm.DB, f CatalogFilter) ([]CatalogProduct, error) {
	query := db.WithContext(ctx).Model(&models.Product{}).Order("created_at DESC")
	if f.CategoryID != "" {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.InStock {
		query = query.Where("stock > 0")
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, apperr.Internal("product.list", err)
	}

	out := make([]CatalogProduct, 0, len(products))
	for _, p := range products {
		cp := toCatalog(p)
		if f.OnSale && !cp.OnSale {
			continue
		}
		out = append(out, cp)
	}
	return out, nil
}

// GetCatalogProduct loads one product and the stock the user can still put
// in their cart.
func GetCatalogProduct(ctx context.Context, db *gorm.DB, userID, productID string) (*CatalogProduct, error) {
	var product models.Product
	err := db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product")
	}
	if err != nil {
		return nil, apperr.Internal("product.get", err)
	}

	var cart models.Cart
	cartID := ""
	err = db.WithContext(ctx).Select("id").First(&cart, "user_id = ?", userID).Error
	switch {
	case err == nil:
		cartID = cart.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Internal("product.get.cart", err)
	}

	available, err := inventory.AvailableStock(ctx, db, productID, cartID)
	if err != nil {
		return nil, apperr.Internal("product.get.stock", err)
	}

	cp := toCatalog(product)
	cp.AvailableStock = &available
	return &cp, nil
}

// GET /api/products?category_id=&search=&on_sale=&in_stock=
func GetProducts(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := CatalogFilter{
			CategoryID: c.Query("category_id"),
			Search:     strings.TrimSpace(c.Query("search")),
			OnSale:     c.Query("on_sale") == "true",
			InStock:    c.Query("in_stock") == "true",
		}

		products, err := ListCatalog(c.Request.Context(), db, filter)
		if err != nil {
			apperr.Respond(c, log, "product.list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GET /api/products/:id
func GetProductByID(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		product, err := GetCatalogProduct(c.Request.Context(), db, auth.CallerID(c), id)
		if err != nil {
			apperr.Respond(c, log, "product.get", err, zap.String("product_id", id))
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}
