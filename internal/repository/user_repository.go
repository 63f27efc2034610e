package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantops/subadmin/internal/model"
	"github.com/tenantops/subadmin/internal/service"
)

const userColumns = `id, username, email, full_name, phone, role, is_active,
	plan_id, plan_start_date, plan_expiry_date, pdf_generated, pdf_limit,
	created_by, created_at, updated_at`

// UserRepository provides data access for users using pgx.
type UserRepository struct {
	pool PoolInterface
}

// NewUserRepository creates a new UserRepository with the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryWithPool creates a new UserRepository with a custom pool
// interface. This is primarily used for testing.
func NewUserRepositoryWithPool(pool PoolInterface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Insert inserts a new user. Returns service.ErrUserExists when the
// username or email is already taken.
func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, full_name, phone, role,
			is_active, pdf_generated, pdf_limit, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)`,
		user.ID, user.Username, user.Email, user.FullName, user.Phone, user.Role,
		user.IsActive, user.PDFLimit, user.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.IsActive,
		&user.PlanID,
		&user.PlanStartDate,
		&user.PlanExpiry,
		&user.PDFGenerated,
		&user.PDFLimit,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID. Returns nil, nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id %s: %w", id, err)
	}
	return user, nil
}

// Update writes a user's profile fields.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $2, full_name = $3, phone = $4, updated_at = now()
		 WHERE id = $1`,
		user.ID, user.Email, user.FullName, user.Phone)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrUserExists
		}
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// SetActive flips the is_active flag.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set user active %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// AssignPlan writes an agent's plan assignment in one statement.
func (r *UserRepository) AssignPlan(ctx context.Context, userID, planID string, start, expiry time.Time, pdfLimit int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET plan_id = $2, plan_start_date = $3, plan_expiry_date = $4,
			pdf_limit = $5, updated_at = now()
		 WHERE id = $1`,
		userID, planID, start, expiry, pdfLimit)
	if err != nil {
		return fmt.Errorf("assign plan to user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// List returns users ordered newest first, optionally filtered by role.
func (r *UserRepository) List(ctx context.Context, role string, offset, limit int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, role, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// Count returns the number of users matching the optional role filter.
func (r *UserRepository) Count(ctx context.Context, role string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE ($1 = '' OR role = $1)`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
