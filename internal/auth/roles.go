package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireCapability ensures the caller's role grants action.
func RequireCapability(action rbac.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !rbac.Can(principal.Role(), action) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
