package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/pkg/database"
)

// RedemptionRepository provides data access for redemption records using pgx.
type RedemptionRepository struct {
	pool PoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a new RedemptionRepository with a
// custom pool interface. This is primarily used for testing.
func NewRedemptionRepositoryWithPool(pool PoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// Insert records a redemption within a transaction. The row is the audit
// trail for a consumed usage slot, so it must commit atomically with the
// counter increment.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, redemption *model.Redemption) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO redemptions (id, coupon_id, coupon_code, user_id, plan_id,
			base_amount, discount, redeemed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		redemption.ID, redemption.CouponID, redemption.CouponCode, redemption.UserID,
		redemption.PlanID, redemption.BaseAmount, redemption.Discount, redemption.RedeemedAt)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// GetUsersByCoupon retrieves the IDs of all users who redeemed a coupon,
// oldest redemption first. On success, returns an empty slice (not nil)
// when no redemptions exist.
func (r *RedemptionRepository) GetUsersByCoupon(ctx context.Context, couponID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM redemptions WHERE coupon_id = $1 ORDER BY redeemed_at`,
		couponID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan redemption user_id: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}

	// Return empty slice, not nil
	if users == nil {
		users = []string{}
	}
	return users, nil
}
