package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantops/subadmin/internal/auth"
	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
)

// PlanServiceInterface defines the interface for plan management logic.
type PlanServiceInterface interface {
	Create(ctx context.Context, req *model.CreatePlanRequest, createdBy string) (*model.Plan, error)
	Update(ctx context.Context, id string, req *model.UpdatePlanRequest) (*model.Plan, error)
	ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error)
	GetByID(ctx context.Context, id string) (*model.PlanResponse, error)
	List(ctx context.Context, page, perPage int) (*model.PlanListResponse, error)
	ListActive(ctx context.Context) ([]model.PlanResponse, error)
}

// PlanHandler handles HTTP requests for plan management.
type PlanHandler struct {
	service   PlanServiceInterface
	validator *validator.Validate
}

// NewPlanHandler creates a new PlanHandler with the given service and validator.
func NewPlanHandler(svc PlanServiceInterface, v *validator.Validate) *PlanHandler {
	return &PlanHandler{service: svc, validator: v}
}

// CreatePlan handles POST /api/plans.
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req model.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	plan, err := h.service.Create(c.Context(), &req, auth.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrPlanExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "plan name already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("plan_name", req.Name).Msg("failed to create plan")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("plan_id", plan.ID).
		Str("plan_name", plan.Name).
		Str("created_by", plan.CreatedBy).
		Msg("plan created")

	return c.Status(fiber.StatusCreated).JSON(plan)
}

// UpdatePlan handles PUT /api/plans/:id.
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	plan, err := h.service.Update(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		if errors.Is(err, service.ErrPlanExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "plan name already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("plan_id", id).Msg("failed to update plan")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(plan)
}

// TogglePlan handles POST /api/plans/:id/toggle.
func (h *PlanHandler) TogglePlan(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.service.ToggleActive(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		log.Error().Err(err).Str("plan_id", id).Msg("failed to toggle plan")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("plan_id", id).
		Bool("is_active", result.IsActive).
		Str("toggled_by", auth.UserID(c)).
		Msg("plan status toggled")

	return c.JSON(result)
}

// GetPlan handles GET /api/plans/:id.
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id := c.Params("id")

	plan, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		log.Error().Err(err).Str("plan_id", id).Msg("failed to get plan")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(plan)
}

// ListPlans handles GET /api/plans.
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	page, perPage := parsePagination(c)

	resp, err := h.service.List(c.Context(), page, perPage)
	if err != nil {
		log.Error().Err(err).Msg("failed to list plans")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(resp)
}

// ListActivePlans handles GET /api/plans/active.
func (h *PlanHandler) ListActivePlans(c *fiber.Ctx) error {
	plans, err := h.service.ListActive(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list active plans")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}
