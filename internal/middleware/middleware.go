package middleware

import (
	"bookflower-loyalty/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		RoleMiddleware(roles ...string) fiber.Handler
		ServiceTokenMiddleware() fiber.Handler
	}

	middleware struct {
		allowedOrigins string
		serviceToken   string
	}
)

func NewMiddleware(allowedOrigins, serviceToken string) Middleware {
	return &middleware{
		allowedOrigins: allowedOrigins,
		serviceToken:   serviceToken,
	}
}
