package engine

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"accelerator-admin/internal/metadata"
)

// CheckActionPermission verifies that the user may apply the action. An
// action without roles is open to every back-office user. A nil user means
// the identity middleware is off and nothing is enforced.
func CheckActionPermission(user *metadata.UserContext, entity string, action *metadata.Action) error {
	if user == nil || len(action.Roles) == 0 {
		return nil
	}
	if user.Role == "super_admin" || hasRole(action.Roles, user.Role) {
		return nil
	}
	return ForbiddenError(fmt.Sprintf("Permission denied for %s on %s", action.Name, entity))
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// userOf returns the caller set by the identity middleware, if any.
func userOf(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
