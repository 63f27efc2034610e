package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
)

const planColumns = `id, name, description, period_type, period_value, price,
	pdf_limit, features, is_active, created_by, created_at, updated_at`

// PlanRepository provides data access for plans using pgx.
type PlanRepository struct {
	pool PoolInterface
}

// NewPlanRepository creates a new PlanRepository with the given pool.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// NewPlanRepositoryWithPool creates a new PlanRepository with a custom pool
// interface. This is primarily used for testing.
func NewPlanRepositoryWithPool(pool PoolInterface) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// Insert inserts a new plan. Returns service.ErrPlanExists when the name
// is already taken.
func (r *PlanRepository) Insert(ctx context.Context, plan *model.Plan) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO plans (id, name, description, period_type, period_value,
			price, pdf_limit, features, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		plan.ID, plan.Name, plan.Description, plan.PeriodType, plan.PeriodValue,
		plan.Price, plan.PDFLimit, plan.Features, plan.IsActive, plan.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrPlanExists
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) scanPlan(row pgx.Row) (*model.Plan, error) {
	var plan model.Plan
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.PeriodType,
		&plan.PeriodValue,
		&plan.Price,
		&plan.PDFLimit,
		&plan.Features,
		&plan.IsActive,
		&plan.CreatedBy,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByID retrieves a plan by ID. Returns nil, nil if not found.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	plan, err := r.scanPlan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by id %s: %w", id, err)
	}
	return plan, nil
}

// GetByName retrieves a plan by its unique name. Returns nil, nil if not found.
func (r *PlanRepository) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`

	plan, err := r.scanPlan(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by name %s: %w", name, err)
	}
	return plan, nil
}

// Update writes a plan's mutable fields.
func (r *PlanRepository) Update(ctx context.Context, plan *model.Plan) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE plans SET name = $2, description = $3, period_type = $4,
			period_value = $5, price = $6, pdf_limit = $7, features = $8,
			is_active = $9, updated_at = now()
		 WHERE id = $1`,
		plan.ID, plan.Name, plan.Description, plan.PeriodType, plan.PeriodValue,
		plan.Price, plan.PDFLimit, plan.Features, plan.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrPlanExists
		}
		return fmt.Errorf("update plan %s: %w", plan.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPlanNotFound
	}
	return nil
}

// SetActive flips the is_active flag.
func (r *PlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE plans SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set plan active %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPlanNotFound
	}
	return nil
}

// List returns plans ordered newest first.
func (r *PlanRepository) List(ctx context.Context, offset, limit int) ([]model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []model.Plan{}
	for rows.Next() {
		plan, err := r.scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}
	return plans, nil
}

// ListActive returns every active plan ordered by price ascending.
func (r *PlanRepository) ListActive(ctx context.Context) ([]model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_active ORDER BY price`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	plans := []model.Plan{}
	for rows.Next() {
		plan, err := r.scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}
	return plans, nil
}

// Count returns the total number of plans.
func (r *PlanRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM plans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return count, nil
}
