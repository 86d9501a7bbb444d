package reward

import (
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	RewardRepository interface {
		// LockAward returns the award row for (user, book, kind), creating it empty when missing.
		LockAward(ctx context.Context, userID, bookRef, kind string) (*entities.RewardAward, error)
		SaveAward(ctx context.Context, award *entities.RewardAward) error
		// MarkEventProcessed reports false when the event id was already recorded.
		MarkEventProcessed(ctx context.Context, event *entities.ProcessedEvent) (bool, error)
	}

	rewardRepository struct {
		db *gorm.DB
	}
)

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) LockAward(ctx context.Context, userID, bookRef, kind string) (*entities.RewardAward, error) {
	db := database.Conn(ctx, r.db)

	empty := entities.RewardAward{
		ID:      uuid.New(),
		UserID:  userID,
		BookRef: bookRef,
		Kind:    kind,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_ref"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(&empty).Error; err != nil {
		return nil, err
	}

	var award entities.RewardAward
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND book_ref = ? AND kind = ?", userID, bookRef, kind).
		First(&award).Error; err != nil {
		return nil, err
	}
	return &award, nil
}

func (r *rewardRepository) SaveAward(ctx context.Context, award *entities.RewardAward) error {
	return database.Conn(ctx, r.db).
		Model(&entities.RewardAward{}).
		Where("id = ?", award.ID).
		Updates(map[string]interface{}{
			"amount": award.Amount,
			"count":  award.Count,
		}).Error
}

func (r *rewardRepository) MarkEventProcessed(ctx context.Context, event *entities.ProcessedEvent) (bool, error) {
	result := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
