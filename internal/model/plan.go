package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType determines how a plan's period_value is interpreted.
type PeriodType string

const (
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodYearly  PeriodType = "YEARLY"
	PeriodCustom  PeriodType = "CUSTOM" // period_value is a number of days
)

// Plan is a subscription tier assigned to agent users. It is a read-only
// dependency of coupon validation.
type Plan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PeriodType  PeriodType      `json:"period_type"`
	PeriodValue int             `json:"period_value"`
	Price       decimal.Decimal `json:"price"`
	PDFLimit    int             `json:"pdf_limit"`
	Features    []string        `json:"features"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PeriodDisplay renders the billing period for listings.
func (p *Plan) PeriodDisplay() string {
	plural := ""
	if p.PeriodValue > 1 {
		plural = "s"
	}
	switch p.PeriodType {
	case PeriodYearly:
		return fmt.Sprintf("%d Year%s", p.PeriodValue, plural)
	case PeriodMonthly:
		return fmt.Sprintf("%d Month%s", p.PeriodValue, plural)
	default:
		return fmt.Sprintf("Custom (%d days)", p.PeriodValue)
	}
}

// ExpiryFrom computes when a subscription started at the given time runs
// out. Months count as 30 days and years as 365, matching the billing
// terms this service inherited.
func (p *Plan) ExpiryFrom(start time.Time) time.Time {
	switch p.PeriodType {
	case PeriodYearly:
		return start.AddDate(0, 0, 365*p.PeriodValue)
	case PeriodMonthly:
		return start.AddDate(0, 0, 30*p.PeriodValue)
	default:
		return start.AddDate(0, 0, p.PeriodValue)
	}
}

// CreatePlanRequest is the DTO for creating a plan.
type CreatePlanRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Description string          `json:"description" validate:"max=1024"`
	PeriodType  string          `json:"period_type" validate:"required,oneof=MONTHLY YEARLY CUSTOM"`
	PeriodValue int             `json:"period_value" validate:"required,gte=1"`
	Price       decimal.Decimal `json:"price"`
	PDFLimit    int             `json:"pdf_limit" validate:"gte=0"`
	Features    []string        `json:"features"`
	IsActive    *bool           `json:"is_active"`
}

// UpdatePlanRequest is the DTO for editing a plan.
type UpdatePlanRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Description string          `json:"description" validate:"max=1024"`
	PeriodType  string          `json:"period_type" validate:"required,oneof=MONTHLY YEARLY CUSTOM"`
	PeriodValue int             `json:"period_value" validate:"required,gte=1"`
	Price       decimal.Decimal `json:"price"`
	PDFLimit    int             `json:"pdf_limit" validate:"gte=0"`
	Features    []string        `json:"features"`
	IsActive    *bool           `json:"is_active"`
}

// PlanResponse is the API representation of a plan.
type PlanResponse struct {
	Plan
	PeriodDisplay string `json:"period_display"`
}

// PlanListResponse is a paginated plan listing.
type PlanListResponse struct {
	Plans      []PlanResponse `json:"plans"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}
