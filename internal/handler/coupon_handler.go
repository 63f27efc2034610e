package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantops/subadmin/internal/auth"
	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
)

// CouponServiceInterface defines the interface for coupon management logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest, createdBy string) (*model.Coupon, error)
	Update(ctx context.Context, id string, req *model.UpdateCouponRequest) (*model.Coupon, error)
	ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error)
	GetByCode(ctx context.Context, code string, at time.Time) (*model.CouponResponse, error)
	List(ctx context.Context, page, perPage int, at time.Time) (*model.CouponListResponse, error)
}

// CouponHandler handles HTTP requests for coupon management.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), &req, auth.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidCouponDefinition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_name", req.Name).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_id", coupon.ID).
		Str("coupon_code", coupon.Code).
		Str("created_by", coupon.CreatedBy).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// UpdateCoupon handles PUT /api/coupons/:id.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		if errors.Is(err, service.ErrInvalidCouponDefinition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to update coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// ToggleCoupon handles POST /api/coupons/:id/toggle.
func (h *CouponHandler) ToggleCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.service.ToggleActive(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to toggle coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_id", id).
		Bool("is_active", result.IsActive).
		Str("toggled_by", auth.UserID(c)).
		Msg("coupon status toggled")

	return c.JSON(result)
}

// GetCoupon handles GET /api/coupons/:code.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	coupon, err := h.service.GetByCode(c.Context(), code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// ListCoupons handles GET /api/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	page, perPage := parsePagination(c)

	resp, err := h.service.List(c.Context(), page, perPage, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(resp)
}
