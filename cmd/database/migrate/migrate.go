package migration

import (
	"bookflower-loyalty/entities"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";").Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	models := []any{
		&entities.PointAccount{},
		&entities.PointTransaction{},
		&entities.StreakRecord{},
		&entities.CouponDefinition{},
		&entities.IssuedCoupon{},
		&entities.RewardAward{},
		&entities.ProcessedEvent{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	log.Info("Database migration complete")
	return nil
}
