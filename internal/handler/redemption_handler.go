package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tenantops/subadmin/internal/auth"
	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
)

// RedemptionServiceInterface defines the interface for coupon validation
// and redemption logic.
type RedemptionServiceInterface interface {
	Validate(ctx context.Context, code, planID string, amount decimal.Decimal, at time.Time) (*model.DiscountResult, error)
	Redeem(ctx context.Context, code, planID string, amount decimal.Decimal, at time.Time, userID string) (*model.DiscountResult, error)
}

// RedemptionHandler handles HTTP requests for validating and redeeming coupons.
type RedemptionHandler struct {
	service   RedemptionServiceInterface
	validator *validator.Validate
}

// NewRedemptionHandler creates a new RedemptionHandler with the given service and validator.
func NewRedemptionHandler(svc RedemptionServiceInterface, v *validator.Validate) *RedemptionHandler {
	return &RedemptionHandler{service: svc, validator: v}
}

// couponErrorStatus maps the business-rule outcomes of validation and
// redemption onto HTTP statuses. Rule rejections are 422: the request was
// well-formed, the coupon just does not apply.
func couponErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		return fiber.StatusNotFound, "coupon not found", true
	case errors.Is(err, service.ErrCouponInactive):
		return fiber.StatusUnprocessableEntity, "coupon is not active", true
	case errors.Is(err, service.ErrCouponExpired):
		return fiber.StatusUnprocessableEntity, "coupon is outside its validity window", true
	case errors.Is(err, service.ErrUsageLimitReached):
		return fiber.StatusUnprocessableEntity, "coupon usage limit reached", true
	case errors.Is(err, service.ErrPlanNotEligible):
		return fiber.StatusUnprocessableEntity, "coupon not applicable to this plan", true
	case errors.Is(err, service.ErrMinPurchaseNotMet):
		return fiber.StatusUnprocessableEntity, "minimum purchase amount not met", true
	case errors.Is(err, service.ErrConcurrentLimitExceeded):
		return fiber.StatusConflict, "usage limit reached by concurrent redemption", true
	default:
		return 0, "", false
	}
}

// ValidateCoupon handles POST /api/coupons/validate. This is the pure
// preview: it never consumes a usage slot, so a checkout page may call it
// as often as it likes.
func (h *RedemptionHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}
	if req.Amount.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: amount cannot be negative"})
	}

	result, err := h.service.Validate(c.Context(), req.Code, req.PlanID, req.Amount, time.Now().UTC())
	if err != nil {
		if status, msg, ok := couponErrorStatus(err); ok {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to validate coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(result)
}

// RedeemCoupon handles POST /api/coupons/redeem. On success one usage slot
// has been consumed and recorded.
func (h *RedemptionHandler) RedeemCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}
	if req.Amount.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: amount cannot be negative"})
	}

	userID := auth.UserID(c)
	result, err := h.service.Redeem(c.Context(), req.Code, req.PlanID, req.Amount, time.Now().UTC(), userID)
	if err != nil {
		if status, msg, ok := couponErrorStatus(err); ok {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_code", req.Code).
			Str("plan_id", req.PlanID).
			Str("user_id", userID).
			Msg("failed to redeem coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("coupon_code", result.Code).
		Str("plan_id", req.PlanID).
		Str("user_id", userID).
		Str("discount", result.Discount.String()).
		Msg("coupon redeemed")

	return c.JSON(result)
}
