package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductInput is used for create (all required fields set) and for partial
// update (nil fields are left alone). An empty categoryId detaches the
// category; a zero weight falls back to the shipping default.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"imageUrl"`
	CategoryID  *string          `json:"categoryId"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Weight      *decimal.Decimal `json:"weight"`
}

func (in *ProductInput) validate(creating bool) error {
	var fields []apperr.FieldError
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}

	switch {
	case in.Name == nil && creating, in.Name != nil && *in.Name == "":
		fields = append(fields, apperr.FieldError{Field: "name", Message: "is required"})
	}
	if creating && in.Price == nil {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "is required"})
	}
	if in.Price != nil && in.Price.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "cannot be negative"})
	}
	if in.Weight != nil && in.Weight.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "weight", Message: "cannot be negative"})
	}

	if len(fields) > 0 {
		return apperr.Validation("name and price are required and must be valid", fields...)
	}
	return nil
}

// apply copies the set fields onto p. Stock is clamped at zero.
func (in *ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			p.CategoryID = nil
		} else {
			id := *in.CategoryID
			p.CategoryID = &id
		}
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = max(0, *in.Stock)
	}
	if in.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*in.Weight)
		if in.Weight.IsZero() {
			p.Weight = decimal.NullDecimal{}
		}
	}
}

func checkCategory(ctx context.Context, db *gorm.DB, id *string) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperr.Internal("product.category", err)
	}
	if count == 0 {
		return apperr.NotFound("category")
	}
	return nil
}

func CreateProduct(ctx context.Context, db *gorm.DB, in ProductInput) (*models.Product, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	product := &models.Product{}
	in.apply(product)
	if err := checkCategory(ctx, db, product.CategoryID); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, apperr.Internal("product.create", err)
	}
	return product, nil
}

// UpdateProduct applies a partial update. Setting stock is the only way
// besides checkout to change inventory.
func UpdateProduct(ctx context.Context, db *gorm.DB, id string, in ProductInput) (*models.Product, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var product models.Product
	err := db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product")
	}
	if err != nil {
		return nil, apperr.Internal("product.update", err)
	}

	in.apply(&product)
	if err := checkCategory(ctx, db, product.CategoryID); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, apperr.Internal("product.update", err)
	}
	return &product, nil
}

// DeleteProduct removes a product and any cart lines holding it. Past orders
// keep their own name and price snapshot.
func DeleteProduct(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return apperr.Internal("product.delete.cart_items", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
			return apperr.Internal("product.delete.wishlist", err)
		}

		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return apperr.Internal("product.delete", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("product")
		}
		return nil
	})
}

// POST /api/admin/products
func CreateProductHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apperr.Respond(c, log, "product.create", apperr.Binding(err))
			return
		}

		product, err := CreateProduct(c.Request.Context(), db, in)
		if err != nil {
			apperr.Respond(c, log, "product.create", err)
			return
		}

		log.Info("product created", zap.String("product_id", product.ID))
		c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
	}
}

// PATCH /api/admin/products/:id
func UpdateProductHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var in ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apperr.Respond(c, log, "product.update", apperr.Binding(err))
			return
		}

		product, err := UpdateProduct(c.Request.Context(), db, id, in)
		if err != nil {
			apperr.Respond(c, log, "product.update", err, zap.String("product_id", id))
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := DeleteProduct(c.Request.Context(), db, id); err != nil {
			apperr.Respond(c, log, "product.delete", err, zap.String("product_id", id))
			return
		}

		log.Info("product deleted", zap.String("product_id", id))
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
