package coupon_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/testutil/mockdb"
	"bookflower-loyalty/internal/utils/database"
	"bookflower-loyalty/pkg/coupon"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIssuedCouponMapsUniqueViolation(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := coupon.NewCouponRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "issued_coupons"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	now := time.Now()
	err := repo.CreateIssuedCoupon(context.Background(), &entities.IssuedCoupon{
		ID:           uuid.New(),
		UserID:       "reader",
		DefinitionID: uuid.New(),
		Code:         "AAAAAAAAAAAA",
		Status:       entities.CouponStatusAvailable,
		IssuedAt:     now,
		ExpiresAt:    now.Add(domain.CouponValidity),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateCouponCode)
}

func TestLockIssuedCouponByCodeUsesRowLock(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := coupon.NewCouponRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "issued_coupons" WHERE code = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "definition_id", "code", "status"}))

	_, err := repo.LockIssuedCouponByCode(context.Background(), "MISSING")
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestRedeemSequenceLocksCouponRow(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := coupon.NewCouponRepository(db)
	transactor := database.NewTransactor(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "issued_coupons" WHERE code = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "definition_id", "code", "status", "issued_at", "expires_at"}).
			AddRow(id.String(), "reader", uuid.New().String(), "AAAAAAAAAAAA", entities.CouponStatusAvailable, now, now.Add(domain.CouponValidity)))
	mock.ExpectExec(`UPDATE "issued_coupons" SET .*"status"=\$\d+.*WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := transactor.WithinTransaction(context.Background(), func(ctx context.Context) error {
		locked, err := repo.LockIssuedCouponByCode(ctx, "AAAAAAAAAAAA")
		if err != nil {
			return err
		}
		locked.Status = entities.CouponStatusUsed
		locked.UsedAt = &now
		return repo.SaveIssuedCoupon(ctx, locked)
	})
	require.NoError(t, err)
}

func TestUpdateDefinitionActiveNotFound(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := coupon.NewCouponRepository(db)

	mock.ExpectExec(`UPDATE "coupon_definitions" SET "is_active"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDefinitionActive(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, domain.ErrCouponDefinitionNotFound)
}

func TestExpireOverdueCoupons(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := coupon.NewCouponRepository(db)

	mock.ExpectExec(`UPDATE "issued_coupons" SET "status"=\$1.*WHERE .*user_id = \$\d+ AND status = \$\d+ AND expires_at < \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	expired, err := repo.ExpireOverdueCoupons(context.Background(), "reader", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, expired)
}
