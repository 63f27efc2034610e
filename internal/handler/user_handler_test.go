package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
	appvalidator "github.com/tenantops/subadmin/internal/validator"
)

// mockUserService is a mock implementation of UserServiceInterface.
type mockUserService struct {
	createFn     func(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error)
	updateFn     func(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error)
	toggleFn     func(ctx context.Context, id string) (*model.ToggleResponse, error)
	assignPlanFn func(ctx context.Context, userID, planID string, at time.Time) (*model.User, error)
	getByIDFn    func(ctx context.Context, id string) (*model.UserResponse, error)
	listFn       func(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error)
}

func (m *mockUserService) Create(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req, createdBy)
	}
	return &model.User{}, nil
}

func (m *mockUserService) Update(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return &model.User{}, nil
}

func (m *mockUserService) ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, id)
	}
	return &model.ToggleResponse{}, nil
}

func (m *mockUserService) AssignPlan(ctx context.Context, userID, planID string, at time.Time) (*model.User, error) {
	if m.assignPlanFn != nil {
		return m.assignPlanFn(ctx, userID, planID, at)
	}
	return &model.User{}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*model.UserResponse, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.UserResponse{}, nil
}

func (m *mockUserService) List(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error) {
	if m.listFn != nil {
		return m.listFn(ctx, role, page, perPage)
	}
	return &model.UserListResponse{}, nil
}

func setupUserApp(mockSvc *mockUserService) *fiber.App {
	app := fiber.New()
	h := NewUserHandler(mockSvc, appvalidator.New())
	app.Post("/api/users", h.CreateUser)
	app.Get("/api/users", h.ListUsers)
	app.Get("/api/users/:id", h.GetUser)
	app.Put("/api/users/:id", h.UpdateUser)
	app.Post("/api/users/:id/toggle", h.ToggleUser)
	app.Post("/api/users/:id/assign-plan", h.AssignPlan)
	return app
}

func TestCreateUser_Success(t *testing.T) {
	mockSvc := &mockUserService{
		createFn: func(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error) {
			return &model.User{
				ID:       "user-1",
				Username: req.Username,
				Email:    req.Email,
				Role:     model.Role(req.Role),
				IsActive: true,
			}, nil
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"username": "agent_smith", "email": "smith@example.com", "full_name": "Agent Smith", "role": "AGENT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result model.User
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "agent_smith", result.Username)
	assert.Equal(t, model.RoleAgent, result.Role)
}

func TestCreateUser_BadRole(t *testing.T) {
	app := setupUserApp(&mockUserService{})

	body := `{"username": "x", "email": "x@example.com", "role": "SUPERUSER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "invalid request: role must be one of [OWNER ADMIN AGENT]", result["error"])
}

func TestCreateUser_BadEmail(t *testing.T) {
	app := setupUserApp(&mockUserService{})

	body := `{"username": "x", "email": "not-an-email", "role": "AGENT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateUser_Duplicate(t *testing.T) {
	mockSvc := &mockUserService{
		createFn: func(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error) {
			return nil, service.ErrUserExists
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"username": "agent_smith", "email": "smith@example.com", "role": "AGENT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestUpdateUser_NotFound(t *testing.T) {
	mockSvc := &mockUserService{
		updateFn: func(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error) {
			return nil, service.ErrUserNotFound
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"email": "new@example.com"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/missing", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestToggleUser_Success(t *testing.T) {
	mockSvc := &mockUserService{
		toggleFn: func(ctx context.Context, id string) (*model.ToggleResponse, error) {
			return &model.ToggleResponse{ID: id, IsActive: false}, nil
		},
	}
	app := setupUserApp(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/toggle", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAssignPlan_Success(t *testing.T) {
	planID := "plan-1"
	mockSvc := &mockUserService{
		assignPlanFn: func(ctx context.Context, userID, pid string, at time.Time) (*model.User, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "plan-1", pid)
			return &model.User{ID: userID, Role: model.RoleAgent, PlanID: &planID}, nil
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"plan_id": "plan-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/assign-plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result model.User
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	require.NotNil(t, result.PlanID)
	assert.Equal(t, "plan-1", *result.PlanID)
}

func TestAssignPlan_NotAgent(t *testing.T) {
	mockSvc := &mockUserService{
		assignPlanFn: func(ctx context.Context, userID, planID string, at time.Time) (*model.User, error) {
			return nil, service.ErrNotAgent
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"plan_id": "plan-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/assign-plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var result map[string]string
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "plans can only be assigned to agents", result["error"])
}

func TestAssignPlan_PlanNotFound(t *testing.T) {
	mockSvc := &mockUserService{
		assignPlanFn: func(ctx context.Context, userID, planID string, at time.Time) (*model.User, error) {
			return nil, service.ErrPlanNotFound
		},
	}
	app := setupUserApp(mockSvc)

	body := `{"plan_id": "missing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/assign-plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignPlan_MissingPlanID(t *testing.T) {
	app := setupUserApp(&mockUserService{})

	body := `{}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/assign-plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "invalid request: plan_id is required", result["error"])
}

func TestGetUser_NotFound(t *testing.T) {
	mockSvc := &mockUserService{
		getByIDFn: func(ctx context.Context, id string) (*model.UserResponse, error) {
			return nil, service.ErrUserNotFound
		},
	}
	app := setupUserApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListUsers_RoleFilter(t *testing.T) {
	var gotRole string
	mockSvc := &mockUserService{
		listFn: func(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error) {
			gotRole = role
			return &model.UserListResponse{Users: []model.UserResponse{}}, nil
		},
	}
	app := setupUserApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/users?role=AGENT", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "AGENT", gotRole)
}

func TestListUsers_BadRoleFilter(t *testing.T) {
	mockSvc := &mockUserService{
		listFn: func(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error) {
			return nil, service.ErrInvalidRequest
		},
	}
	app := setupUserApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/users?role=WIZARD", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
