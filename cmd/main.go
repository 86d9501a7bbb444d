package main

import (
	"bookflower-loyalty/cmd/config"
	migration "bookflower-loyalty/cmd/database/migrate"
	"bookflower-loyalty/internal/utils"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations before serving")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	seed := flag.Bool("seed", false, "insert the coupon seed file even if the catalog is not empty")
	flag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *migrate || *migrateOnly {
		if err := migration.Migrate(db); err != nil {
			log.Fatalf("Error migrating database: %v", err)
		}
		if *migrateOnly {
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := config.NewApp(ctx, db, config.Options{Seed: *seed})
	if err != nil {
		log.Fatalf("Error creating app: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf(":%s", utils.GetConfig("APP_PORT"))); err != nil {
		log.Fatalf("%v", err)
	}
}
