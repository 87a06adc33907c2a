package couponControllers

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CouponInput is the admin create payload and the merged state validated on
// update.
type CouponInput struct {
	Code          string              `json:"code" binding:"required"`
	Description   string              `json:"description"`
	DiscountType  string              `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal     `json:"discountValue"`
	MinSubtotal   decimal.Decimal     `json:"minSubtotal"`
	MaxSubtotal   decimal.NullDecimal `json:"maxSubtotal"`
	Active        *bool               `json:"active"`
	ValidFrom     *time.Time          `json:"validFrom"`
	ValidTo       *time.Time          `json:"validTo"`
}

// Normalize trims text fields and uppercases the code.
func (in *CouponInput) Normalize() {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Description = strings.TrimSpace(in.Description)
	in.DiscountType = strings.TrimSpace(in.DiscountType)
}

// Validate normalizes the input and returns a validation error listing every
// offending field, or nil. Tag rules run first; the decimal and cross-field
// rules follow.
func (in *CouponInput) Validate() error {
	in.Normalize()

	fields := apperr.Violations(in)
	add := func(field, message string) {
		fields = append(fields, apperr.FieldError{Field: field, Message: message})
	}

	kind := models.DiscountType(in.DiscountType)
	if !in.DiscountValue.IsPositive() {
		add("discountValue", "must be greater than zero")
	} else if kind == models.DiscountPercentage && in.DiscountValue.GreaterThan(hundred) {
		add("discountValue", "must be between 0 and 100 for percentage discounts")
	}

	if in.MinSubtotal.IsNegative() {
		add("minSubtotal", "cannot be negative")
	}
	if in.MaxSubtotal.Valid && in.MaxSubtotal.Decimal.LessThan(in.MinSubtotal) {
		add("maxSubtotal", "cannot be lower than minSubtotal")
	}

	if in.ValidFrom != nil && in.ValidTo != nil && in.ValidFrom.After(*in.ValidTo) {
		add("validFrom", "cannot be after validTo")
	}

	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation(fields[0].Field+" "+fields[0].Message, fields...)
}

// Model builds the coupon row for the validated input. Active defaults to true.
func (in *CouponInput) Model() *models.Coupon {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &models.Coupon{
		Code:          in.Code,
		Description:   in.Description,
		DiscountType:  models.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
		MinSubtotal:   in.MinSubtotal,
		MaxSubtotal:   in.MaxSubtotal,
		Active:        active,
		ValidFrom:     in.ValidFrom,
		ValidTo:       in.ValidTo,
	}
}

// Optional tells an absent JSON field apart from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// CouponPatch is a partial admin update. Only fields present in the body are
// applied; maxSubtotal, validFrom and validTo may be cleared with null.
type CouponPatch struct {
	Code          Optional[string]          `json:"code"`
	Description   Optional[string]          `json:"description"`
	DiscountType  Optional[string]          `json:"discountType"`
	DiscountValue Optional[decimal.Decimal] `json:"discountValue"`
	MinSubtotal   Optional[decimal.Decimal] `json:"minSubtotal"`
	MaxSubtotal   Optional[decimal.Decimal] `json:"maxSubtotal"`
	Active        Optional[bool]            `json:"active"`
	ValidFrom     Optional[time.Time]       `json:"validFrom"`
	ValidTo       Optional[time.Time]       `json:"validTo"`
}

func (p *CouponPatch) Empty() bool {
	return !p.Code.Set && !p.Description.Set && !p.DiscountType.Set && !p.DiscountValue.Set &&
		!p.MinSubtotal.Set && !p.MaxSubtotal.Set && !p.Active.Set && !p.ValidFrom.Set && !p.ValidTo.Set
}

// Merge overlays the patch on an existing coupon.
func (p *CouponPatch) Merge(c *models.Coupon) CouponInput {
	active := c.Active
	in := CouponInput{
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		MinSubtotal:   c.MinSubtotal,
		MaxSubtotal:   c.MaxSubtotal,
		Active:        &active,
		ValidFrom:     c.ValidFrom,
		ValidTo:       c.ValidTo,
	}

	if p.Code.Set {
		in.Code = deref(p.Code.Value)
	}
	if p.Description.Set {
		in.Description = deref(p.Description.Value)
	}
	if p.DiscountType.Set {
		in.DiscountType = deref(p.DiscountType.Value)
	}
	if p.DiscountValue.Set {
		in.DiscountValue = deref(p.DiscountValue.Value)
	}
	if p.MinSubtotal.Set {
		in.MinSubtotal = deref(p.MinSubtotal.Value)
	}
	if p.MaxSubtotal.Set {
		in.MaxSubtotal = decimal.NullDecimal{}
		if p.MaxSubtotal.Value != nil {
			in.MaxSubtotal = decimal.NewNullDecimal(*p.MaxSubtotal.Value)
		}
	}
	if p.Active.Set && p.Active.Value != nil {
		in.Active = p.Active.Value
	}
	if p.ValidFrom.Set {
		in.ValidFrom = p.ValidFrom.Value
	}
	if p.ValidTo.Set {
		in.ValidTo = p.ValidTo.Value
	}
	return in
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
