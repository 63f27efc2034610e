package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType determines how a coupon's discount_value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

// CouponStatus is a read-time classification derived from stored fields.
// It is never persisted, so it cannot drift from the underlying data.
type CouponStatus string

const (
	CouponStatusScheduled CouponStatus = "SCHEDULED" // before valid_from
	CouponStatusActive    CouponStatus = "ACTIVE"
	CouponStatusExhausted CouponStatus = "EXHAUSTED" // usage_count reached usage_limit
	CouponStatusDisabled  CouponStatus = "DISABLED"  // is_active toggled off
	CouponStatusExpired   CouponStatus = "EXPIRED"   // after valid_until
)

// Coupon represents a discount coupon. usage_count is only ever mutated
// through the redemption path, never by a direct edit.
type Coupon struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	DiscountType      DiscountType     `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"` // nil = unlimited
	UsageCount        int              `json:"usage_count"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	IsActive          bool             `json:"is_active"`
	ApplicablePlanIDs []string         `json:"applicable_plan_ids"` // empty = all plans
	CreatedBy         string           `json:"created_by"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NormalizeCode canonicalizes a coupon code for storage and lookup.
// Codes are case-insensitive: they are stored and matched upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HasUsageHeadroom reports whether at least one redemption slot remains.
func (c *Coupon) HasUsageHeadroom() bool {
	return c.UsageLimit == nil || c.UsageCount < *c.UsageLimit
}

// AppliesToPlan reports whether the coupon's plan restriction allows planID.
// An empty restriction set allows every plan.
func (c *Coupon) AppliesToPlan(planID string) bool {
	if len(c.ApplicablePlanIDs) == 0 {
		return true
	}
	for _, id := range c.ApplicablePlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

// InWindow reports whether at falls inside the inclusive validity window.
func (c *Coupon) InWindow(at time.Time) bool {
	return !at.Before(c.ValidFrom) && !at.After(c.ValidUntil)
}

// Status derives the coupon's lifecycle state at the given time.
func (c *Coupon) Status(at time.Time) CouponStatus {
	switch {
	case !c.IsActive:
		return CouponStatusDisabled
	case at.After(c.ValidUntil):
		return CouponStatusExpired
	case at.Before(c.ValidFrom):
		return CouponStatusScheduled
	case !c.HasUsageHeadroom():
		return CouponStatusExhausted
	default:
		return CouponStatusActive
	}
}

// Discount computes the discount for a base price. Percentage discounts are
// rounded to cents with banker's rounding and respect the optional
// max_discount_amount cap. The result is never negative and never exceeds
// the base price.
func (c *Coupon) Discount(base decimal.Decimal) decimal.Decimal {
	if base.IsNegative() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = base.Mul(c.DiscountValue).Div(decimal.NewFromInt(100)).RoundBank(2)
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = *c.MaxDiscountAmount
		}
	case DiscountFixed:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(base) {
		discount = base
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// DiscountResult is returned by both validation (preview) and redemption.
type DiscountResult struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Discount      decimal.Decimal `json:"discount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
}

// Redemption records one consumed unit of a coupon's usage allowance.
type Redemption struct {
	ID         string          `json:"id"`
	CouponID   string          `json:"coupon_id"`
	CouponCode string          `json:"coupon_code"`
	UserID     string          `json:"user_id"`
	PlanID     string          `json:"plan_id"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Discount   decimal.Decimal `json:"discount"`
	RedeemedAt time.Time       `json:"redeemed_at"`
}

// CreateCouponRequest is the DTO for creating a coupon. When Code is empty
// the service generates one.
type CreateCouponRequest struct {
	Code              string           `json:"code" validate:"omitempty,couponcode"`
	Name              string           `json:"name" validate:"required,notblank,max=255"`
	Description       string           `json:"description" validate:"max=1024"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit" validate:"omitempty,gte=1"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	ApplicablePlanIDs []string         `json:"applicable_plan_ids"`
	IsActive          *bool            `json:"is_active"`
}

// UpdateCouponRequest is the DTO for editing a coupon's mutable fields.
// Code, usage_count and creation metadata are immutable.
type UpdateCouponRequest struct {
	Name              string           `json:"name" validate:"required,notblank,max=255"`
	Description       string           `json:"description" validate:"max=1024"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit" validate:"omitempty,gte=1"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	ApplicablePlanIDs []string         `json:"applicable_plan_ids"`
	IsActive          *bool            `json:"is_active"`
}

// ValidateCouponRequest is the DTO for the validate (preview) and redeem
// endpoints. Amount is the base price the discount applies to.
type ValidateCouponRequest struct {
	Code   string          `json:"code" validate:"required,notblank,max=64"`
	PlanID string          `json:"plan_id" validate:"required,notblank"`
	Amount decimal.Decimal `json:"amount"`
}

// CouponResponse is the API representation of a coupon. Status is derived
// at response time; RedeemedBy is populated on the detail endpoint only.
type CouponResponse struct {
	Coupon
	Status     CouponStatus `json:"status"`
	RedeemedBy []string     `json:"redeemed_by,omitempty"`
}

// CouponListResponse is a paginated coupon listing.
type CouponListResponse struct {
	Coupons    []CouponResponse `json:"coupons"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// ToggleResponse reports the new active flag after a toggle.
type ToggleResponse struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
}
