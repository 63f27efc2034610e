package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tenantops/subadmin/internal/model"
)

// PlanRepositoryInterface defines the interface for plan data access.
type PlanRepositoryInterface interface {
	Insert(ctx context.Context, plan *model.Plan) error
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	Update(ctx context.Context, plan *model.Plan) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, offset, limit int) ([]model.Plan, error)
	ListActive(ctx context.Context) ([]model.Plan, error)
	Count(ctx context.Context) (int, error)
}

// PlanCache is a read cache in front of plan lookups. Implementations must
// tolerate being handed a nil plan on Get misses.
type PlanCache interface {
	Get(ctx context.Context, id string) (*model.Plan, bool)
	Set(ctx context.Context, plan *model.Plan)
	Delete(ctx context.Context, id string)
}

// PlanService provides business logic for subscription plans.
type PlanService struct {
	planRepo PlanRepositoryInterface
	cache    PlanCache
}

// NewPlanService creates a new PlanService.
func NewPlanService(planRepo PlanRepositoryInterface, cache PlanCache) *PlanService {
	return &PlanService{planRepo: planRepo, cache: cache}
}

// Plan resolves a plan by ID through the cache. Returns nil, nil when the
// plan does not exist. This satisfies the PlanLookup dependency of the
// coupon and user services.
func (s *PlanService) Plan(ctx context.Context, id string) (*model.Plan, error) {
	if plan, ok := s.cache.Get(ctx, id); ok {
		return plan, nil
	}

	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan != nil {
		s.cache.Set(ctx, plan)
	}
	return plan, nil
}

// Create creates a new plan. Returns ErrPlanExists when the name is taken
// and ErrInvalidRequest on a negative price.
func (s *PlanService) Create(ctx context.Context, req *model.CreatePlanRequest, createdBy string) (*model.Plan, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if req.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidRequest)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	plan := &model.Plan{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		PeriodType:  model.PeriodType(req.PeriodType),
		PeriodValue: req.PeriodValue,
		Price:       req.Price,
		PDFLimit:    req.PDFLimit,
		Features:    req.Features,
		IsActive:    isActive,
		CreatedBy:   createdBy,
	}

	if err := s.planRepo.Insert(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update edits a plan. A name change that collides with another plan
// returns ErrPlanExists. The cache entry is invalidated on success.
func (s *PlanService) Update(ctx context.Context, id string, req *model.UpdatePlanRequest) (*model.Plan, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if req.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidRequest)
	}

	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	if req.Name != plan.Name {
		existing, err := s.planRepo.GetByName(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("check plan name: %w", err)
		}
		if existing != nil {
			return nil, ErrPlanExists
		}
	}

	plan.Name = req.Name
	plan.Description = req.Description
	plan.PeriodType = model.PeriodType(req.PeriodType)
	plan.PeriodValue = req.PeriodValue
	plan.Price = req.Price
	plan.PDFLimit = req.PDFLimit
	plan.Features = req.Features
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, id)
	return plan, nil
}

// ToggleActive flips the plan's is_active flag and invalidates the cache.
func (s *PlanService) ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	newState := !plan.IsActive
	if err := s.planRepo.SetActive(ctx, id, newState); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	s.cache.Delete(ctx, id)
	return &model.ToggleResponse{ID: id, IsActive: newState}, nil
}

// GetByID returns a single plan for the API.
func (s *PlanService) GetByID(ctx context.Context, id string) (*model.PlanResponse, error) {
	plan, err := s.Plan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return &model.PlanResponse{Plan: *plan, PeriodDisplay: plan.PeriodDisplay()}, nil
}

// List returns a page of plans ordered newest first.
func (s *PlanService) List(ctx context.Context, page, perPage int) (*model.PlanListResponse, error) {
	total, err := s.planRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count plans: %w", err)
	}

	plans, err := s.planRepo.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	resp := &model.PlanListResponse{
		Plans:      make([]model.PlanResponse, 0, len(plans)),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	for i := range plans {
		resp.Plans = append(resp.Plans, model.PlanResponse{
			Plan:          plans[i],
			PeriodDisplay: plans[i].PeriodDisplay(),
		})
	}
	return resp, nil
}

// ListActive returns every active plan, cheapest first. Used by purchase
// screens where only buyable tiers matter.
func (s *PlanService) ListActive(ctx context.Context) ([]model.PlanResponse, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}

	resp := make([]model.PlanResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, model.PlanResponse{
			Plan:          plans[i],
			PeriodDisplay: plans[i].PeriodDisplay(),
		})
	}
	return resp, nil
}
