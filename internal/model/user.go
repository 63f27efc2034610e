package model

import "time"

// Role is the closed set of user roles. Credentials and sessions live with
// the upstream auth gateway; this service only stores the role for
// capability checks.
type Role string

const (
	RoleOwner Role = "OWNER"
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
)

// ParseRole maps a raw string to a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleAgent:
		return Role(s), true
	default:
		return "", false
	}
}

// User is an administrative account record. Agents carry a plan
// assignment; owners and admins do not.
type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone"`
	Role          Role       `json:"role"`
	IsActive      bool       `json:"is_active"`
	PlanID        *string    `json:"plan_id,omitempty"`
	PlanStartDate *time.Time `json:"plan_start_date,omitempty"`
	PlanExpiry    *time.Time `json:"plan_expiry_date,omitempty"`
	PDFGenerated  int        `json:"pdf_generated"`
	PDFLimit      int        `json:"pdf_limit"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsAgent reports whether the user can carry a plan assignment.
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent
}

// CreateUserRequest is the DTO for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,notblank,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Role     string `json:"role" validate:"required,oneof=OWNER ADMIN AGENT"`
}

// UpdateUserRequest is the DTO for editing a user's profile fields.
// Username and role are immutable after creation.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=32"`
}

// AssignPlanRequest is the DTO for assigning a plan to an agent.
type AssignPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required,notblank"`
}

// UserResponse is the API representation of a user.
type UserResponse struct {
	User
}

// UserListResponse is a paginated user listing.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}
