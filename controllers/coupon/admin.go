package couponControllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func duplicateCode() error {
	return apperr.Conflict("coupon code already exists")
}

func List(ctx context.Context, db *gorm.DB, includeInactive bool) ([]models.Coupon, error) {
	query := db.WithContext(ctx).Order("created_at DESC")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	coupons := []models.Coupon{}
	if err := query.Find(&coupons).Error; err != nil {
		return nil, apperr.Internal("coupon.list", err)
	}
	return coupons, nil
}

func Find(ctx context.Context, db *gorm.DB, id string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := db.WithContext(ctx).First(&coupon, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("coupon")
	}
	if err != nil {
		return nil, apperr.Internal("coupon.get", err)
	}
	return &coupon, nil
}

// codeTaken reports whether another coupon already uses code.
func codeTaken(ctx context.Context, db *gorm.DB, code, exceptID string) (bool, error) {
	query := db.WithContext(ctx).Model(&models.Coupon{}).Where("UPPER(code) = ?", code)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func Create(ctx context.Context, db *gorm.DB, input CouponInput) (*models.Coupon, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	taken, err := codeTaken(ctx, db, input.Code, "")
	if err != nil {
		return nil, apperr.Internal("coupon.create", err)
	}
	if taken {
		return nil, duplicateCode()
	}

	coupon := input.Model()
	if err := db.WithContext(ctx).Create(coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCode()
		}
		return nil, apperr.Internal("coupon.create", err)
	}
	return coupon, nil
}

func Update(ctx context.Context, db *gorm.DB, id string, patch CouponPatch) (*models.Coupon, error) {
	if patch.Empty() {
		return nil, apperr.Validation("no changes were sent")
	}

	existing, err := Find(ctx, db, id)
	if err != nil {
		return nil, err
	}

	merged := patch.Merge(existing)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	taken, err := codeTaken(ctx, db, merged.Code, id)
	if err != nil {
		return nil, apperr.Internal("coupon.update", err)
	}
	if taken {
		return nil, duplicateCode()
	}

	updated := merged.Model()
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	// Select("*") writes zero values too, so inactive and cleared bounds stick.
	err = db.WithContext(ctx).Model(existing).Select("*").Omit("id", "created_at").Updates(updated).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCode()
		}
		return nil, apperr.Internal("coupon.update", err)
	}
	return Find(ctx, db, id)
}

// Delete removes a coupon that no order references. Carts holding it lose the
// coupon.
func Delete(ctx context.Context, db *gorm.DB, id string) error {
	if _, err := Find(ctx, db, id); err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&models.Order{}).Where("coupon_id = ?", id).Count(&orders).Error; err != nil {
			return apperr.Internal("coupon.delete", err)
		}
		if orders > 0 {
			return apperr.Conflict("coupon is referenced by existing orders")
		}

		if err := clearCartCoupon(tx.Where("coupon_id = ?", id)); err != nil {
			return apperr.Internal("coupon.delete", err)
		}

		if err := tx.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return apperr.Conflict("coupon is referenced by existing orders")
			}
			return apperr.Internal("coupon.delete", err)
		}
		return nil
	})
}

// GET /api/admin/coupons
func ListCoupons(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		includeInactive := c.Query("includeInactive") == "true"

		coupons, err := List(c.Request.Context(), db, includeInactive)
		if err != nil {
			apperr.Respond(c, log, "coupon.list", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"coupons": coupons})
	}
}

// GET /api/admin/coupons/:id
func GetCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		coupon, err := Find(c.Request.Context(), db, c.Param("id"))
		if err != nil {
			apperr.Respond(c, log, "coupon.get", err, zap.String("coupon_id", c.Param("id")))
			return
		}

		c.JSON(http.StatusOK, gin.H{"coupon": coupon})
	}
}

// POST /api/admin/coupons
func CreateCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, log, "coupon.create", apperr.Binding(err))
			return
		}

		coupon, err := Create(c.Request.Context(), db, input)
		if err != nil {
			apperr.Respond(c, log, "coupon.create", err, zap.String("code", input.Code))
			return
		}

		log.Info("coupon created", zap.String("coupon_id", coupon.ID), zap.String("code", coupon.Code))
		c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
	}
}

// PATCH /api/admin/coupons/:id
func UpdateCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var patch CouponPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			apperr.Respond(c, log, "coupon.update", apperr.Binding(err))
			return
		}

		coupon, err := Update(c.Request.Context(), db, id, patch)
		if err != nil {
			apperr.Respond(c, log, "coupon.update", err, zap.String("coupon_id", id))
			return
		}

		c.JSON(http.StatusOK, gin.H{"coupon": coupon})
	}
}

// DELETE /api/admin/coupons/:id
func DeleteCoupon(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := Delete(c.Request.Context(), db, id); err != nil {
			apperr.Respond(c, log, "coupon.delete", err, zap.String("coupon_id", id))
			return
		}

		log.Info("coupon deleted", zap.String("coupon_id", id))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
