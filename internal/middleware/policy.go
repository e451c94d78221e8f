package middleware

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/internal/models"
)

// RequireRole admits only callers whose token carries one of roles. Mount it
// after Auth.
func RequireRole(roles ...string) drift.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *drift.Context) {
		if GetUserID(c) == 0 {
			c.Unauthorized("not authenticated")
			return
		}
		if !allowed[GetUserRole(c)] {
			c.Forbidden("insufficient permissions")
			return
		}
		c.Next()
	}
}

func IsAdmin(c *drift.Context) bool {
	return GetUserRole(c) == models.RoleAdmin
}
