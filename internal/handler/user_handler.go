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

// UserServiceInterface defines the interface for user management logic.
type UserServiceInterface interface {
	Create(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error)
	Update(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error)
	ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error)
	AssignPlan(ctx context.Context, userID, planID string, at time.Time) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.UserResponse, error)
	List(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error)
}

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	service   UserServiceInterface
	validator *validator.Validate
}

// NewUserHandler creates a new UserHandler with the given service and validator.
func NewUserHandler(svc UserServiceInterface, v *validator.Validate) *UserHandler {
	return &UserHandler{service: svc, validator: v}
}

// CreateUser handles POST /api/users.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req model.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	user, err := h.service.Create(c.Context(), &req, auth.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username or email already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("username", req.Username).Msg("failed to create user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Str("created_by", user.CreatedBy).
		Msg("user created")

	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser handles PUT /api/users/:id.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	user, err := h.service.Update(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		if errors.Is(err, service.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email already exists"})
		}
		log.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(user)
}

// ToggleUser handles POST /api/users/:id/toggle.
func (h *UserHandler) ToggleUser(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.service.ToggleActive(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		log.Error().Err(err).Str("user_id", id).Msg("failed to toggle user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("user_id", id).
		Bool("is_active", result.IsActive).
		Str("toggled_by", auth.UserID(c)).
		Msg("user status toggled")

	return c.JSON(result)
}

// AssignPlan handles POST /api/users/:id/assign-plan.
func (h *UserHandler) AssignPlan(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.AssignPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	user, err := h.service.AssignPlan(c.Context(), id, req.PlanID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		case errors.Is(err, service.ErrPlanNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		case errors.Is(err, service.ErrNotAgent):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "plans can only be assigned to agents"})
		case errors.Is(err, service.ErrPlanNotEligible):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "plan is not active"})
		}
		log.Error().Err(err).Str("user_id", id).Str("plan_id", req.PlanID).Msg("failed to assign plan")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("user_id", id).
		Str("plan_id", req.PlanID).
		Str("assigned_by", auth.UserID(c)).
		Msg("plan assigned")

	return c.JSON(user)
}

// GetUser handles GET /api/users/:id.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")

	user, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		log.Error().Err(err).Str("user_id", id).Msg("failed to get user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(user)
}

// ListUsers handles GET /api/users. An optional role query parameter
// filters the listing.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, perPage := parsePagination(c)
	role := c.Query("role")

	resp, err := h.service.List(c.Context(), role, page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Msg("failed to list users")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(resp)
}
