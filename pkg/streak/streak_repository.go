package streak

import (
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	StreakRepository interface {
		GetStreak(ctx context.Context, userID string) (*entities.StreakRecord, error)
		LockStreak(ctx context.Context, userID string) (*entities.StreakRecord, error)
		SaveStreak(ctx context.Context, record *entities.StreakRecord) error
	}

	streakRepository struct {
		db *gorm.DB
	}
)

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) ensureStreak(db *gorm.DB, userID string) error {
	record := entities.StreakRecord{
		ID:     uuid.New(),
		UserID: userID,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&record).Error
}

func (r *streakRepository) GetStreak(ctx context.Context, userID string) (*entities.StreakRecord, error) {
	db := database.Conn(ctx, r.db)
	if err := r.ensureStreak(db, userID); err != nil {
		return nil, err
	}

	var record entities.StreakRecord
	if err := db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *streakRepository) LockStreak(ctx context.Context, userID string) (*entities.StreakRecord, error) {
	db := database.Conn(ctx, r.db)
	if err := r.ensureStreak(db, userID); err != nil {
		return nil, err
	}

	var record entities.StreakRecord
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *streakRepository) SaveStreak(ctx context.Context, record *entities.StreakRecord) error {
	return database.Conn(ctx, r.db).
		Model(&entities.StreakRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"current_streak":     record.CurrentStreak,
			"longest_streak":     record.LongestStreak,
			"last_activity_date": record.LastActivityDate,
		}).Error
}
