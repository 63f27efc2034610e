package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tenantops/subadmin/internal/model"
)

// UserRepositoryInterface defines the interface for user data access.
type UserRepositoryInterface interface {
	Insert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetActive(ctx context.Context, id string, active bool) error
	AssignPlan(ctx context.Context, userID, planID string, start, expiry time.Time, pdfLimit int) error
	List(ctx context.Context, role string, offset, limit int) ([]model.User, error)
	Count(ctx context.Context, role string) (int, error)
}

// UserService provides business logic for administrative user accounts.
type UserService struct {
	userRepo UserRepositoryInterface
	plans    PlanLookup
}

// NewUserService creates a new UserService.
func NewUserService(userRepo UserRepositoryInterface, plans PlanLookup) *UserService {
	return &UserService{userRepo: userRepo, plans: plans}
}

// Create creates a new user record. Credentials are not handled here; the
// upstream auth gateway owns them. Returns ErrUserExists when the username
// or email is taken.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidRequest)
	}

	user := &model.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Role:      role,
		IsActive:  true,
		CreatedBy: createdBy,
	}

	if err := s.userRepo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update edits a user's profile fields. Username and role stay fixed.
func (s *UserService) Update(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Email = req.Email
	user.FullName = req.FullName
	user.Phone = req.Phone

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleActive flips the user's is_active flag and returns the new state.
func (s *UserService) ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	newState := !user.IsActive
	if err := s.userRepo.SetActive(ctx, id, newState); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	return &model.ToggleResponse{ID: id, IsActive: newState}, nil
}

// AssignPlan puts an agent on a plan: the start date is now, the expiry is
// computed from the plan's billing period, and the agent inherits the
// plan's PDF generation limit. Only agents carry plans.
func (s *UserService) AssignPlan(ctx context.Context, userID, planID string, at time.Time) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsAgent() {
		return nil, ErrNotAgent
	}

	plan, err := s.plans.Plan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, ErrPlanNotEligible
	}

	expiry := plan.ExpiryFrom(at)
	if err := s.userRepo.AssignPlan(ctx, userID, planID, at, expiry, plan.PDFLimit); err != nil {
		return nil, fmt.Errorf("assign plan: %w", err)
	}

	user.PlanID = &planID
	user.PlanStartDate = &at
	user.PlanExpiry = &expiry
	user.PDFLimit = plan.PDFLimit
	return user, nil
}

// GetByID returns a single user for the API.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &model.UserResponse{User: *user}, nil
}

// List returns a page of users, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role string, page, perPage int) (*model.UserListResponse, error) {
	if role != "" {
		if _, ok := model.ParseRole(role); !ok {
			return nil, fmt.Errorf("%w: unknown role filter", ErrInvalidRequest)
		}
	}

	total, err := s.userRepo.Count(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	users, err := s.userRepo.List(ctx, role, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := &model.UserListResponse{
		Users:      make([]model.UserResponse, 0, len(users)),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	for i := range users {
		resp.Users = append(resp.Users, model.UserResponse{User: users[i]})
	}
	return resp, nil
}
