package ledger

import (
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	LedgerRepository interface {
		// Accounts are created lazily, with zero balances and no transaction.
		GetAccount(ctx context.Context, userID string) (*entities.PointAccount, error)
		// LockAccount holds the account row lock until the surrounding transaction ends.
		LockAccount(ctx context.Context, userID string) (*entities.PointAccount, error)
		SaveAccount(ctx context.Context, account *entities.PointAccount) error

		CreateTransaction(ctx context.Context, tx *entities.PointTransaction) error
		GetTransactions(ctx context.Context, userID string, page, limit int) ([]*entities.PointTransaction, int64, error)
		SumTransactions(ctx context.Context, userID string) (earned int, used int, err error)
	}

	ledgerRepository struct {
		db *gorm.DB
	}
)

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) ensureAccount(db *gorm.DB, userID string) error {
	account := entities.PointAccount{
		ID:     uuid.New(),
		UserID: userID,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&account).Error
}

func (r *ledgerRepository) GetAccount(ctx context.Context, userID string) (*entities.PointAccount, error) {
	db := database.Conn(ctx, r.db)
	if err := r.ensureAccount(db, userID); err != nil {
		return nil, err
	}

	var account entities.PointAccount
	if err := db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) LockAccount(ctx context.Context, userID string) (*entities.PointAccount, error) {
	db := database.Conn(ctx, r.db)
	if err := r.ensureAccount(db, userID); err != nil {
		return nil, err
	}

	var account entities.PointAccount
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) SaveAccount(ctx context.Context, account *entities.PointAccount) error {
	return database.Conn(ctx, r.db).
		Model(&entities.PointAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"total_points":     account.TotalPoints,
			"used_points":      account.UsedPoints,
			"available_points": account.AvailablePoints,
		}).Error
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *entities.PointTransaction) error {
	return database.Conn(ctx, r.db).Create(tx).Error
}

func (r *ledgerRepository) GetTransactions(ctx context.Context, userID string, page, limit int) ([]*entities.PointTransaction, int64, error) {
	var transactions []*entities.PointTransaction
	var count int64
	offset := (page - 1) * limit
	db := database.Conn(ctx, r.db)

	if err := db.
		Model(&entities.PointTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}

func (r *ledgerRepository) SumTransactions(ctx context.Context, userID string) (int, int, error) {
	var totals struct {
		Earned int
		Used   int
	}
	if err := database.Conn(ctx, r.db).
		Model(&entities.PointTransaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS earned, "+
				"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS used",
			entities.TransactionKindEarn, entities.TransactionKindUse,
		).
		Where("user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return 0, 0, err
	}
	return totals.Earned, totals.Used, nil
}
