package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name string `json:"name" binding:"required"`
}

func CreateCategory(ctx context.Context, db *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required",
			apperr.FieldError{Field: "name", Message: "is required"})
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
		return nil, apperr.Internal("category.create", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("category already exists")
	}

	category := &models.Category{Name: name}
	if err := db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("category already exists")
		}
		return nil, apperr.Internal("category.create", err)
	}
	return category, nil
}

func ListCategories(ctx context.Context, db *gorm.DB) ([]models.Category, error) {
	categories := []models.Category{}
	if err := db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, apperr.Internal("category.list", err)
	}
	return categories, nil
}

// POST /api/admin/categories
func CreateCategoryHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in CategoryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apperr.Respond(c, log, "category.create", apperr.Binding(err))
			return
		}

		category, err := CreateCategory(c.Request.Context(), db, in.Name)
		if err != nil {
			apperr.Respond(c, log, "category.create", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"category": category})
	}
}

// GET /api/admin/categories
func GetCategories(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := ListCategories(c.Request.Context(), db)
		if err != nil {
			apperr.Respond(c, log, "category.list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}
