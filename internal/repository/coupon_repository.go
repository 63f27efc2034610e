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
	"github.com/tenantops/subadmin/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const uniqueViolation = "23505"

const couponColumns = `id, code, name, description, discount_type, discount_value,
	min_purchase_amount, max_discount_amount, usage_limit, usage_count,
	valid_from, valid_until, is_active, applicable_plan_ids, created_by,
	created_at, updated_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon. Returns service.ErrCouponExists when the
// code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, name, description, discount_type, discount_value,
			min_purchase_amount, max_discount_amount, usage_limit, usage_count,
			valid_from, valid_until, is_active, applicable_plan_ids, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, $13, $14)`,
		coupon.ID, coupon.Code, coupon.Name, coupon.Description, coupon.DiscountType,
		coupon.DiscountValue, coupon.MinPurchaseAmount, coupon.MaxDiscountAmount,
		coupon.UsageLimit, coupon.ValidFrom, coupon.ValidUntil, coupon.IsActive,
		coupon.ApplicablePlanIDs, coupon.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *CouponRepository) scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var coupon model.Coupon
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Name,
		&coupon.Description,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.MinPurchaseAmount,
		&coupon.MaxDiscountAmount,
		&coupon.UsageLimit,
		&coupon.UsageCount,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&coupon.IsActive,
		&coupon.ApplicablePlanIDs,
		&coupon.CreatedBy,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode retrieves a coupon by its normalized code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := r.scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetByID retrieves a coupon by ID. Returns nil, nil if not found.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := r.scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by id %s: %w", id, err)
	}
	return coupon, nil
}

// Update writes the mutable coupon fields. usage_count is deliberately
// absent: it only moves through IncrementUsage.
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET name = $2, description = $3, discount_type = $4,
			discount_value = $5, min_purchase_amount = $6, max_discount_amount = $7,
			usage_limit = $8, valid_from = $9, valid_until = $10, is_active = $11,
			applicable_plan_ids = $12, updated_at = now()
		 WHERE id = $1`,
		coupon.ID, coupon.Name, coupon.Description, coupon.DiscountType,
		coupon.DiscountValue, coupon.MinPurchaseAmount, coupon.MaxDiscountAmount,
		coupon.UsageLimit, coupon.ValidFrom, coupon.ValidUntil, coupon.IsActive,
		coupon.ApplicablePlanIDs)
	if err != nil {
		return fmt.Errorf("update coupon %s: %w", coupon.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// SetActive flips the is_active flag.
func (r *CouponRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set coupon active %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// List returns coupons ordered newest first.
func (r *CouponRepository) List(ctx context.Context, offset, limit int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := r.scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// Count returns the total number of coupons.
func (r *CouponRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM coupons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return count, nil
}

// CodeExists reports whether a code is already taken.
func (r *CouponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM coupons WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code %s: %w", code, err)
	}
	return exists, nil
}

// IncrementUsage bumps usage_count by one, but only while headroom remains.
// The headroom check lives in the WHERE clause, so two racing redemptions
// near the cap cannot both match: the loser affects zero rows and this
// returns false. Must be called within a transaction alongside the
// redemption record insert.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE coupons SET usage_count = usage_count + 1, updated_at = now()
		 WHERE code = $1 AND is_active
		   AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		code)
	if err != nil {
		return false, fmt.Errorf("increment usage for %s: %w", code, err)
	}
	return tag.RowsAffected() == 1, nil
}
