package config

import (
	"bookflower-loyalty/internal/api/handlers"
	"bookflower-loyalty/internal/api/routes"
	"bookflower-loyalty/internal/middleware"
	"bookflower-loyalty/internal/scheduler"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/internal/utils/database"
	"bookflower-loyalty/pkg/coupon"
	"bookflower-loyalty/pkg/jwt"
	"bookflower-loyalty/pkg/ledger"
	"bookflower-loyalty/pkg/reward"
	"bookflower-loyalty/pkg/streak"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type Options struct {
	// Seed inserts the catalog seed file even when definitions already exist.
	Seed bool
}

func NewApp(ctx context.Context, db *gorm.DB, opts Options) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:           "bookflower-loyalty",
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware(utils.GetConfig("ALLOWED_ORIGINS"), utils.GetConfig("SERVICE_TOKEN"))
	validator := utils.Validate
	location := utils.GetLocation()

	// setting up logging and limiter
	output, err := logOutput(utils.GetConfig("LOG_FILE"))
	if err != nil {
		return nil, err
	}
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   location.String(),
		Output:     output,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
	}))

	// utils
	transactor := database.NewTransactor(db)
	clock := utils.Clock(time.Now)

	// Repository
	ledgerRepository := ledger.NewLedgerRepository(db)
	streakRepository := streak.NewStreakRepository(db)
	couponRepository := coupon.NewCouponRepository(db)
	rewardRepository := reward.NewRewardRepository(db)

	// Service
	jwtService := jwt.NewJWTService(utils.GetConfig("JWT_SECRET"))
	ledgerService := ledger.NewLedgerService(ledgerRepository, transactor, clock)
	streakService := streak.NewStreakService(streakRepository, ledgerService, transactor)
	catalogService := coupon.NewCatalogService(couponRepository)
	couponService := coupon.NewCouponService(couponRepository, catalogService, ledgerService, transactor, coupon.NewCodeGenerator(), clock)
	rewardService := reward.NewRewardService(rewardRepository, ledgerService, streakService, transactor, validator, clock, location)
	dashboardService := reward.NewDashboardService(ledgerService, streakService, catalogService, couponService)

	if err := loadCatalog(ctx, catalogService, opts.Seed); err != nil {
		return nil, err
	}

	sched, err := scheduler.New(catalogService, utils.GetDurationConfig("CATALOG_RELOAD_INTERVAL"))
	if err != nil {
		return nil, err
	}
	sched.Start()
	app.Hooks().OnShutdown(sched.Shutdown)

	// Handler
	pointHandler := handlers.NewPointHandler(ledgerService, streakService, dashboardService)
	couponHandler := handlers.NewCouponHandler(couponService, catalogService, validator)
	eventHandler := handlers.NewEventHandler(rewardService)

	// routes
	routesConfig := routes.Config{
		App:           app,
		PointHandler:  pointHandler,
		CouponHandler: couponHandler,
		EventHandler:  eventHandler,
		Middleware:    middlewares,
		JWTService:    jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

// loadCatalog seeds the coupon catalog when it is empty (or when forced) and loads the snapshot.
func loadCatalog(ctx context.Context, catalogService coupon.CatalogService, force bool) error {
	if err := catalogService.Reload(ctx); err != nil {
		return err
	}
	if !force && len(catalogService.ListAll()) > 0 {
		return nil
	}

	path := utils.GetConfig("COUPON_CATALOG_FILE")
	seeds, err := coupon.LoadSeedFile(path, utils.Validate)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("coupon seed file %s not found, using the default catalog", path)
		seeds = coupon.DefaultSeeds
	} else if err != nil {
		return err
	}

	created, err := catalogService.Seed(ctx, seeds)
	if err != nil {
		return err
	}
	log.Infof("coupon catalog seeded: %d new definitions", created)
	return nil
}

func logOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
}
