package routes

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/handlers"
	"bookflower-loyalty/internal/metrics"
	"bookflower-loyalty/internal/middleware"
	"bookflower-loyalty/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App           *fiber.App
	PointHandler  handlers.PointHandler
	CouponHandler handlers.CouponHandler
	EventHandler  handlers.EventHandler
	Middleware    middleware.Middleware
	JWTService    jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Rewards()
	c.Coupons()
	c.Events()
	c.Admin()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", metrics.Handler())
}

func (c *Config) Rewards() {
	// per-route auth; coupons and events share this prefix
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	rewards := c.App.Group("/api/v1/rewards")
	{
		rewards.Get("/dashboard", auth, c.PointHandler.GetDashboard)
		rewards.Get("/points", auth, c.PointHandler.GetPoints)
		rewards.Get("/points/history", auth, c.PointHandler.GetPointHistory)
		rewards.Get("/points/verify", auth, c.PointHandler.VerifyLedger)
		rewards.Get("/streak", auth, c.PointHandler.GetStreak)
	}
}

func (c *Config) Coupons() {
	coupons := c.App.Group("/api/v1/rewards/coupons")
	{
		coupons.Get("/available", c.CouponHandler.GetAvailableCoupons)
		coupons.Get("/my", c.Middleware.AuthMiddleware(c.JWTService), c.CouponHandler.GetMyCoupons)
		coupons.Post("/:definition_id/exchange", c.Middleware.AuthMiddleware(c.JWTService), c.CouponHandler.ExchangeCoupon)

		// staff terminals redeem by code alone
		coupons.Get("/use/:code", c.CouponHandler.GetCoupon)
		coupons.Post("/use/:code", c.CouponHandler.RedeemCoupon)
	}
}

func (c *Config) Events() {
	events := c.App.Group("/api/v1/rewards/events", c.Middleware.ServiceTokenMiddleware())
	{
		events.Post("/book-completed", c.EventHandler.BookCompleted)
		events.Post("/note-created", c.EventHandler.NoteCreated)
	}
}

func (c *Config) Admin() {
	admin := c.App.Group("/api/v1/rewards/admin",
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.RoleMiddleware(domain.RoleAdmin),
	)
	{
		admin.Post("/catalog/reload", c.CouponHandler.ReloadCatalog)
		admin.Patch("/catalog/:id", c.CouponHandler.UpdateDefinition)
	}
}
