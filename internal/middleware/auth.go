package middleware

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/presenters"
	"bookflower-loyalty/pkg/jwt"
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const ServiceTokenHeader = "X-Service-Token"

// AuthMiddleware stores the caller's user_id and role in the request locals.
func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenNotFound)
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenInvalid)
		}

		userID, role, err := jwtService.GetUserIDByToken(token)
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
		}

		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

// RoleMiddleware must run after AuthMiddleware.
func (m *middleware) RoleMiddleware(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if !slices.Contains(roles, role) {
			return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MesaageUserNotAllowed, domain.ErrUserNotAllowed)
		}
		return c.Next()
	}
}

// ServiceTokenMiddleware guards the routes collaborators use to deliver reading events.
func (m *middleware) ServiceTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(ServiceTokenHeader)
		if m.serviceToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.serviceToken)) != 1 {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedServiceToken, domain.ErrTokenInvalid)
		}
		return c.Next()
	}
}
