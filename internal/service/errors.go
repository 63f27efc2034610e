package service

import "errors"

var (
	// ErrCouponNotFound is returned when a coupon cannot be found by code or ID.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExists is returned when creating a coupon whose code is taken.
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrCouponInactive is returned when the coupon has been disabled by an admin.
	ErrCouponInactive = errors.New("coupon is not active")

	// ErrCouponExpired is returned when the request time falls outside the
	// coupon's inclusive validity window.
	ErrCouponExpired = errors.New("coupon is outside its validity window")

	// ErrUsageLimitReached is returned when the coupon has no usage headroom left.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")

	// ErrPlanNotEligible is returned when the target plan is unknown, inactive,
	// or not in the coupon's restriction set.
	ErrPlanNotEligible = errors.New("coupon not applicable to this plan")

	// ErrMinPurchaseNotMet is returned when the base amount is below the
	// coupon's minimum purchase requirement.
	ErrMinPurchaseNotMet = errors.New("minimum purchase amount not met")

	// ErrConcurrentLimitExceeded is returned when the atomic increment is
	// rejected because another redemption consumed the last slot between
	// validation and commit.
	ErrConcurrentLimitExceeded = errors.New("usage limit reached by concurrent redemption")

	// ErrInvalidCouponDefinition is returned on create/edit when a coupon
	// invariant is violated (window reversed, percentage out of range, ...).
	ErrInvalidCouponDefinition = errors.New("invalid coupon definition")

	// ErrPlanNotFound is returned when a plan cannot be found.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrPlanExists is returned when creating a plan whose name is taken.
	ErrPlanExists = errors.New("plan name already exists")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when a username or email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrNotAgent is returned when assigning a plan to a non-agent user.
	ErrNotAgent = errors.New("plans can only be assigned to agents")

	// ErrInvalidRequest is returned when request data is invalid or incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)
