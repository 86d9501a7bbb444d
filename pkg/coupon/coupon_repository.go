package coupon

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	CouponRepository interface {
		// Coupon definitions
		GetDefinitions(ctx context.Context) ([]*entities.CouponDefinition, error)
		GetDefinitionByID(ctx context.Context, id uuid.UUID) (*entities.CouponDefinition, error)
		CreateDefinitionIfNotExists(ctx context.Context, definition *entities.CouponDefinition) (bool, error)
		UpdateDefinitionActive(ctx context.Context, id uuid.UUID, active bool) error

		// Issued coupons
		CreateIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error
		GetIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error)
		LockIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error)
		SaveIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error
		GetUserCoupons(ctx context.Context, userID, status string, page, limit int) ([]*entities.IssuedCoupon, int64, error)
		ExpireOverdueCoupons(ctx context.Context, userID string, now time.Time) (int64, error)
	}

	couponRepository struct {
		db *gorm.DB
	}
)

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{
		db: db,
	}
}

func (r *couponRepository) GetDefinitions(ctx context.Context) ([]*entities.CouponDefinition, error) {
	var definitions []*entities.CouponDefinition
	if err := database.Conn(ctx, r.db).
		Order("required_points ASC").
		Find(&definitions).Error; err != nil {
		return nil, err
	}
	return definitions, nil
}

func (r *couponRepository) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*entities.CouponDefinition, error) {
	var definition entities.CouponDefinition
	if err := database.Conn(ctx, r.db).
		Where("id = ?", id).
		First(&definition).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponDefinitionNotFound
		}
		return nil, err
	}
	return &definition, nil
}

func (r *couponRepository) CreateDefinitionIfNotExists(ctx context.Context, definition *entities.CouponDefinition) (bool, error) {
	result := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(definition)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *couponRepository) UpdateDefinitionActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := database.Conn(ctx, r.db).
		Model(&entities.CouponDefinition{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCouponDefinitionNotFound
	}
	return nil
}

// CreateIssuedCoupon inserts inside a savepoint so that a code collision does not
// abort an enclosing transaction.
func (r *couponRepository) CreateIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error {
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(coupon).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCouponCode
	}
	return err
}

func (r *couponRepository) GetIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error) {
	var coupon entities.IssuedCoupon
	if err := database.Conn(ctx, r.db).
		Preload("Definition").
		Where("code = ?", code).
		First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) LockIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error) {
	var coupon entities.IssuedCoupon
	if err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) SaveIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error {
	return database.Conn(ctx, r.db).
		Model(&entities.IssuedCoupon{}).
		Where("id = ?", coupon.ID).
		Updates(map[string]interface{}{
			"status":  coupon.Status,
			"used_at": coupon.UsedAt,
		}).Error
}

func (r *couponRepository) GetUserCoupons(ctx context.Context, userID, status string, page, limit int) ([]*entities.IssuedCoupon, int64, error) {
	var coupons []*entities.IssuedCoupon
	var count int64
	offset := (page - 1) * limit

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}
	db := database.Conn(ctx, r.db)

	if err := db.Model(&entities.IssuedCoupon{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Scopes(filter).
		Preload("Definition").
		Order("issued_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, count, nil
}

func (r *couponRepository) ExpireOverdueCoupons(ctx context.Context, userID string, now time.Time) (int64, error) {
	result := database.Conn(ctx, r.db).
		Model(&entities.IssuedCoupon{}).
		Where("user_id = ? AND status = ? AND expires_at < ?", userID, entities.CouponStatusAvailable, now).
		Update("status", entities.CouponStatusExpired)
	return result.RowsAffected, result.Error
}
