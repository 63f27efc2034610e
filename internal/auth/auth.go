// Package auth maps upstream-gateway identity headers to an explicit
// capability check. Authentication itself (credentials, sessions) is the
// gateway's job; this service only decides what a role may do.
package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantops/subadmin/internal/model"
)

// Identity headers set by the upstream auth gateway.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Locals keys under which the middleware stores the parsed identity.
const (
	LocalUserID = "auth_user_id"
	LocalRole   = "auth_role"
)

// Action is a capability a route requires.
type Action string

const (
	ActionCouponsManage Action = "coupons:manage"
	ActionCouponsRead   Action = "coupons:read"
	ActionCouponsRedeem Action = "coupons:redeem"
	ActionPlansManage   Action = "plans:manage"
	ActionPlansRead     Action = "plans:read"
	ActionUsersManage   Action = "users:manage"
	ActionUsersRead     Action = "users:read"
)

// Actions lists every capability, for exhaustiveness checks.
var Actions = []Action{
	ActionCouponsManage,
	ActionCouponsRead,
	ActionCouponsRedeem,
	ActionPlansManage,
	ActionPlansRead,
	ActionUsersManage,
	ActionUsersRead,
}

// capabilities is the single source of truth for role permissions.
// Coupon and plan definitions belong to the owner; admins run day-to-day
// user administration; agents only consume plans and coupons.
var capabilities = map[model.Role]map[Action]bool{
	model.RoleOwner: {
		ActionCouponsManage: true,
		ActionCouponsRead:   true,
		ActionCouponsRedeem: true,
		ActionPlansManage:   true,
		ActionPlansRead:     true,
		ActionUsersManage:   true,
		ActionUsersRead:     true,
	},
	model.RoleAdmin: {
		ActionCouponsRead:   true,
		ActionCouponsRedeem: true,
		ActionPlansRead:     true,
		ActionUsersManage:   true,
		ActionUsersRead:     true,
	},
	model.RoleAgent: {
		ActionCouponsRedeem: true,
		ActionPlansRead:     true,
	},
}

// Can reports whether a role holds a capability.
func Can(role model.Role, action Action) bool {
	return capabilities[role][action]
}

// Require returns middleware that admits only requests whose identity
// headers resolve to a role holding the given capability.
func Require(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		rawRole := c.Get(HeaderUserRole)
		if userID == "" || rawRole == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		role, ok := model.ParseRole(rawRole)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unknown role",
			})
		}

		if !Can(role, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient permissions",
			})
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// UserID returns the authenticated user ID stored by Require.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// RoleOf returns the authenticated role stored by Require.
func RoleOf(c *fiber.Ctx) model.Role {
	role, _ := c.Locals(LocalRole).(model.Role)
	return role
}
