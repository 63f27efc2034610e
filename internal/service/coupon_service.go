package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/pkg/database"
)

// maxCodeAttempts bounds collision retries during code generation.
const maxCodeAttempts = 10

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, offset, limit int) ([]model.Coupon, error)
	Count(ctx context.Context) (int, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) (bool, error)
}

// RedemptionRepositoryInterface defines the interface for redemption records.
type RedemptionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, redemption *model.Redemption) error
	GetUsersByCoupon(ctx context.Context, couponID string) ([]string, error)
}

// PlanLookup resolves plans for eligibility checks. Implementations return
// nil, nil when the plan does not exist.
type PlanLookup interface {
	Plan(ctx context.Context, id string) (*model.Plan, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService provides business logic for coupon management, validation
// and redemption.
type CouponService struct {
	pool           TxBeginner
	couponRepo     CouponRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	plans          PlanLookup
}

// NewCouponService creates a new CouponService with the given pool and repositories.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, plans PlanLookup) *CouponService {
	return &CouponService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		plans:          plans,
	}
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, plans PlanLookup) *CouponService {
	return &CouponService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		plans:          plans,
	}
}

// definitionError wraps ErrInvalidCouponDefinition with the violated rule.
func definitionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCouponDefinition, reason)
}

// checkDefinition enforces the coupon invariants shared by create and edit.
func checkDefinition(discountType model.DiscountType, value, minPurchase decimal.Decimal, maxDiscount *decimal.Decimal, validFrom, validUntil time.Time, usageLimit *int) error {
	switch discountType {
	case model.DiscountPercentage:
		if !value.IsPositive() || value.GreaterThan(decimal.NewFromInt(100)) {
			return definitionError("percentage discount_value must be in (0, 100]")
		}
	case model.DiscountFixed:
		if !value.IsPositive() {
			return definitionError("fixed discount_value must be positive")
		}
	default:
		return definitionError("unknown discount_type")
	}

	if minPurchase.IsNegative() {
		return definitionError("min_purchase_amount cannot be negative")
	}
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		return definitionError("max_discount_amount must be positive when set")
	}
	if validUntil.IsZero() {
		return definitionError("valid_until is required")
	}
	if validFrom.After(validUntil) {
		return definitionError("valid_from must not be after valid_until")
	}
	if usageLimit != nil && *usageLimit < 1 {
		return definitionError("usage_limit must be at least 1")
	}
	return nil
}

// Create creates a new coupon. An empty code is auto-generated; a supplied
// code is normalized upper-case. Returns ErrInvalidCouponDefinition when an
// invariant is violated and ErrCouponExists on a code collision.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest, createdBy string) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	validFrom := req.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now().UTC()
	}

	discountType := model.DiscountType(req.DiscountType)
	if err := checkDefinition(discountType, req.DiscountValue, req.MinPurchaseAmount, req.MaxDiscountAmount, validFrom, req.ValidUntil, req.UsageLimit); err != nil {
		return nil, err
	}

	code := model.NormalizeCode(req.Code)
	if code == "" {
		generated, err := s.generateUniqueCode(ctx, model.DefaultCodeLength)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	coupon := &model.Coupon{
		ID:                uuid.NewString(),
		Code:              code,
		Name:              req.Name,
		Description:       req.Description,
		DiscountType:      discountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		ValidFrom:         validFrom,
		ValidUntil:        req.ValidUntil,
		IsActive:          isActive,
		ApplicablePlanIDs: req.ApplicablePlanIDs,
		CreatedBy:         createdBy,
	}

	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update edits a coupon's mutable fields. The code, usage_count and
// creation metadata never change. Lowering usage_limit below the current
// usage_count is rejected, preserving usage_count <= usage_limit.
func (s *CouponService) Update(ctx context.Context, id string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	discountType := model.DiscountType(req.DiscountType)
	if err := checkDefinition(discountType, req.DiscountValue, req.MinPurchaseAmount, req.MaxDiscountAmount, req.ValidFrom, req.ValidUntil, req.UsageLimit); err != nil {
		return nil, err
	}
	if req.UsageLimit != nil && *req.UsageLimit < coupon.UsageCount {
		return nil, definitionError("usage_limit cannot be lower than current usage_count")
	}

	coupon.Name = req.Name
	coupon.Description = req.Description
	coupon.DiscountType = discountType
	coupon.DiscountValue = req.DiscountValue
	coupon.MinPurchaseAmount = req.MinPurchaseAmount
	coupon.MaxDiscountAmount = req.MaxDiscountAmount
	coupon.UsageLimit = req.UsageLimit
	coupon.ValidFrom = req.ValidFrom
	coupon.ValidUntil = req.ValidUntil
	coupon.ApplicablePlanIDs = req.ApplicablePlanIDs
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ToggleActive flips the coupon's is_active flag and returns the new state.
func (s *CouponService) ToggleActive(ctx context.Context, id string) (*model.ToggleResponse, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	newState := !coupon.IsActive
	if err := s.couponRepo.SetActive(ctx, id, newState); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	return &model.ToggleResponse{ID: id, IsActive: newState}, nil
}

// GetByCode retrieves a coupon by its normalized code together with the
// list of users who redeemed it.
func (s *CouponService) GetByCode(ctx context.Context, code string, at time.Time) (*model.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	redeemedBy, err := s.redemptionRepo.GetUsersByCoupon(ctx, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions: %w", err)
	}

	return &model.CouponResponse{
		Coupon:     *coupon,
		Status:     coupon.Status(at),
		RedeemedBy: redeemedBy,
	}, nil
}

// List returns a page of coupons ordered newest first.
func (s *CouponService) List(ctx context.Context, page, perPage int, at time.Time) (*model.CouponListResponse, error) {
	total, err := s.couponRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}

	coupons, err := s.couponRepo.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	resp := &model.CouponListResponse{
		Coupons:    make([]model.CouponResponse, 0, len(coupons)),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	for i := range coupons {
		resp.Coupons = append(resp.Coupons, model.CouponResponse{
			Coupon: coupons[i],
			Status: coupons[i].Status(at),
		})
	}
	return resp, nil
}

// Validate checks whether a coupon may be applied to a plan purchase and
// computes the discount. It is a pure read: calling it any number of times
// never mutates usage_count, so it is safe for checkout previews.
// Error order: not found, inactive, expired, usage limit, plan eligibility,
// minimum purchase.
func (s *CouponService) Validate(ctx context.Context, code, planID string, amount decimal.Decimal, at time.Time) (*model.DiscountResult, error) {
	_, result, err := s.validate(ctx, code, planID, amount, at)
	return result, err
}

func (s *CouponService) validate(ctx context.Context, code, planID string, amount decimal.Decimal, at time.Time) (*model.Coupon, *model.DiscountResult, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil, nil, ErrCouponInactive
	}
	if !coupon.InWindow(at) {
		return nil, nil, ErrCouponExpired
	}
	if !coupon.HasUsageHeadroom() {
		return nil, nil, ErrUsageLimitReached
	}
	if !coupon.AppliesToPlan(planID) {
		return nil, nil, ErrPlanNotEligible
	}

	plan, err := s.plans.Plan(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("get plan: %w", err)
	}
	// A disabled tier cannot be purchased, so a coupon cannot apply to it.
	if plan == nil || !plan.IsActive {
		return nil, nil, ErrPlanNotEligible
	}

	if amount.LessThan(coupon.MinPurchaseAmount) {
		return nil, nil, ErrMinPurchaseNotMet
	}

	discount := coupon.Discount(amount)
	return coupon, &model.DiscountResult{
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
		Discount:      discount,
		FinalAmount:   amount.Sub(discount),
	}, nil
}

// Redeem consumes one unit of the coupon's usage allowance. The full
// validation runs first; the commit is a single conditional increment
// (usage_count < usage_limit in the WHERE clause) plus a redemption record,
// in one transaction. Two racing redemptions near the limit cannot both
// succeed: the loser's increment matches zero rows and the redemption
// fails with ErrConcurrentLimitExceeded.
func (s *CouponService) Redeem(ctx context.Context, code, planID string, amount decimal.Decimal, at time.Time, userID string) (*model.DiscountResult, error) {
	coupon, result, err := s.validate(ctx, code, planID, amount, at)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	incremented, err := s.couponRepo.IncrementUsage(ctx, tx, coupon.Code)
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}
	if !incremented {
		return nil, ErrConcurrentLimitExceeded
	}

	redemption := &model.Redemption{
		ID:         uuid.NewString(),
		CouponID:   coupon.ID,
		CouponCode: coupon.Code,
		UserID:     userID,
		PlanID:     planID,
		BaseAmount: amount,
		Discount:   result.Discount,
		RedeemedAt: at,
	}
	if err := s.redemptionRepo.Insert(ctx, tx, redemption); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// generateUniqueCode draws random codes until one misses every existing
// code, giving up after maxCodeAttempts draws.
func (s *CouponService) generateUniqueCode(ctx context.Context, length int) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := model.GenerateCode(length)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		exists, err := s.couponRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique code in %d attempts", maxCodeAttempts)
}
