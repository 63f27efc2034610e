package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantops/subadmin/internal/model"
)

// mockUserRepository is a mock implementation of UserRepositoryInterface.
type mockUserRepository struct {
	insertFn     func(ctx context.Context, user *model.User) error
	getByIDFn    func(ctx context.Context, id string) (*model.User, error)
	updateFn     func(ctx context.Context, user *model.User) error
	setActiveFn  func(ctx context.Context, id string, active bool) error
	assignPlanFn func(ctx context.Context, userID, planID string, start, expiry time.Time, pdfLimit int) error
	listFn       func(ctx context.Context, role string, offset, limit int) ([]model.User, error)
	countFn      func(ctx context.Context, role string) (int, error)
}

func (m *mockUserRepository) Insert(ctx context.Context, user *model.User) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockUserRepository) AssignPlan(ctx context.Context, userID, planID string, start, expiry time.Time, pdfLimit int) error {
	if m.assignPlanFn != nil {
		return m.assignPlanFn(ctx, userID, planID, start, expiry, pdfLimit)
	}
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, role string, offset, limit int) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, role, offset, limit)
	}
	return []model.User{}, nil
}

func (m *mockUserRepository) Count(ctx context.Context, role string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, role)
	}
	return 0, nil
}

func testAgent() *model.User {
	return &model.User{
		ID:       "user-1",
		Username: "agent_smith",
		Email:    "smith@example.com",
		Role:     model.RoleAgent,
		IsActive: true,
	}
}

func TestUserService_Create_Success(t *testing.T) {
	var captured *model.User
	mockRepo := &mockUserRepository{
		insertFn: func(ctx context.Context, user *model.User) error {
			captured = user
			return nil
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	req := &model.CreateUserRequest{
		Username: "agent_smith",
		Email:    "smith@example.com",
		FullName: "Agent Smith",
		Role:     "AGENT",
	}

	user, err := svc.Create(context.Background(), req, "admin-1")

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, model.RoleAgent, captured.Role)
	assert.True(t, captured.IsActive)
	assert.Equal(t, "admin-1", captured.CreatedBy)
}

func TestUserService_Create_UnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockPlanLookup{})
	req := &model.CreateUserRequest{
		Username: "x",
		Email:    "x@example.com",
		Role:     "SUPERUSER",
	}

	_, err := svc.Create(context.Background(), req, "admin-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestUserService_Create_Duplicate(t *testing.T) {
	mockRepo := &mockUserRepository{
		insertFn: func(ctx context.Context, user *model.User) error {
			return ErrUserExists
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	req := &model.CreateUserRequest{
		Username: "agent_smith",
		Email:    "smith@example.com",
		Role:     "AGENT",
	}

	_, err := svc.Create(context.Background(), req, "admin-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserExists))
}

func TestUserService_Update_ProfileFieldsOnly(t *testing.T) {
	var captured *model.User
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return testAgent(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			captured = user
			return nil
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	req := &model.UpdateUserRequest{
		Email:    "new@example.com",
		FullName: "New Name",
		Phone:    "+123456",
	}

	user, err := svc.Update(context.Background(), "user-1", req)

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", captured.Email)
	assert.Equal(t, "agent_smith", user.Username, "username must not change")
	assert.Equal(t, model.RoleAgent, user.Role, "role must not change")
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockPlanLookup{})
	_, err := svc.Update(context.Background(), "missing", &model.UpdateUserRequest{Email: "x@example.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUserService_ToggleActive_Flips(t *testing.T) {
	var setTo *bool
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return testAgent(), nil
		},
		setActiveFn: func(ctx context.Context, id string, active bool) error {
			setTo = &active
			return nil
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	resp, err := svc.ToggleActive(context.Background(), "user-1")

	require.NoError(t, err)
	require.NotNil(t, setTo)
	assert.False(t, *setTo)
	assert.False(t, resp.IsActive)
}

func TestUserService_AssignPlan_Success(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	plan := &model.Plan{
		ID:          "plan-1",
		Name:        "Basic",
		PeriodType:  model.PeriodMonthly,
		PeriodValue: 1,
		PDFLimit:    50,
		IsActive:    true,
	}

	var gotExpiry time.Time
	var gotPDFLimit int
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return testAgent(), nil
		},
		assignPlanFn: func(ctx context.Context, userID, planID string, s, expiry time.Time, pdfLimit int) error {
			gotExpiry = expiry
			gotPDFLimit = pdfLimit
			return nil
		},
	}
	plans := &mockPlanLookup{
		planFn: func(ctx context.Context, id string) (*model.Plan, error) {
			return plan, nil
		},
	}

	svc := NewUserService(mockRepo, plans)
	user, err := svc.AssignPlan(context.Background(), "user-1", "plan-1", start)

	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 30), gotExpiry, "monthly plan expires 30 days after start")
	assert.Equal(t, 50, gotPDFLimit, "agent inherits the plan's pdf limit")
	require.NotNil(t, user.PlanID)
	assert.Equal(t, "plan-1", *user.PlanID)
	require.NotNil(t, user.PlanExpiry)
	assert.Equal(t, gotExpiry, *user.PlanExpiry)
}

func TestUserService_AssignPlan_NotAgent(t *testing.T) {
	admin := testAgent()
	admin.Role = model.RoleAdmin
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return admin, nil
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	_, err := svc.AssignPlan(context.Background(), "user-1", "plan-1", time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAgent))
}

func TestUserService_AssignPlan_PlanNotFound(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return testAgent(), nil
		},
	}
	plans := &mockPlanLookup{
		planFn: func(ctx context.Context, id string) (*model.Plan, error) {
			return nil, nil
		},
	}

	svc := NewUserService(mockRepo, plans)
	_, err := svc.AssignPlan(context.Background(), "user-1", "missing", time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlanNotFound))
}

func TestUserService_AssignPlan_InactivePlan(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return testAgent(), nil
		},
	}
	plans := &mockPlanLookup{
		planFn: func(ctx context.Context, id string) (*model.Plan, error) {
			return &model.Plan{ID: id, IsActive: false}, nil
		},
	}

	svc := NewUserService(mockRepo, plans)
	_, err := svc.AssignPlan(context.Background(), "user-1", "plan-1", time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlanNotEligible))
}

func TestUserService_AssignPlan_UserNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockPlanLookup{})
	_, err := svc.AssignPlan(context.Background(), "missing", "plan-1", time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUserService_List_RejectsUnknownRoleFilter(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockPlanLookup{})
	_, err := svc.List(context.Background(), "WIZARD", 1, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestUserService_List_FiltersByRole(t *testing.T) {
	mockRepo := &mockUserRepository{
		countFn: func(ctx context.Context, role string) (int, error) {
			assert.Equal(t, "AGENT", role)
			return 1, nil
		},
		listFn: func(ctx context.Context, role string, offset, limit int) ([]model.User, error) {
			assert.Equal(t, "AGENT", role)
			return []model.User{*testAgent()}, nil
		},
	}

	svc := NewUserService(mockRepo, &mockPlanLookup{})
	resp, err := svc.List(context.Background(), "AGENT", 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "agent_smith", resp.Users[0].Username)
}
