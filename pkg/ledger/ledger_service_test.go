package ledger_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/testutil/memstore"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/pkg/ledger"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (ledger.LedgerService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	clock := utils.Clock(func() time.Time { return fixedNow })
	return ledger.NewLedgerService(store, store, clock), store
}

func credit(userID string, amount int) domain.PointRequest {
	return domain.PointRequest{UserID: userID, Amount: amount, Source: domain.SourceNote, Reason: "test credit"}
}

func debit(userID string, amount int) domain.PointRequest {
	return domain.PointRequest{UserID: userID, Amount: amount, Source: domain.SourceCouponExchange, Reason: "test debit"}
}

func TestCreditAndDebitKeepBalanceInvariant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLedger(t)

	ops := []struct {
		credit bool
		amount int
	}{
		{true, 100}, {false, 30}, {true, 50}, {false, 120}, {true, 2},
	}
	for _, op := range ops {
		var err error
		if op.credit {
			_, err = svc.Credit(ctx, credit("reader", op.amount))
		} else {
			_, err = svc.Debit(ctx, debit("reader", op.amount))
		}
		require.NoError(t, err)

		balance, err := svc.GetBalance(ctx, "reader")
		require.NoError(t, err)
		assert.Equal(t, balance.Total-balance.Used, balance.Available)
		assert.GreaterOrEqual(t, balance.Available, 0)
	}

	balance, err := svc.GetBalance(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, 152, balance.Total)
	assert.Equal(t, 150, balance.Used)
	assert.Equal(t, 2, balance.Available)
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedger(t)

	_, err := svc.Credit(ctx, credit("reader", 40))
	require.NoError(t, err)

	_, err = svc.Debit(ctx, debit("reader", 41))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	balance, err := svc.GetBalance(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, &domain.PointBalance{UserID: "reader", Total: 40, Available: 40, Used: 0}, balance)
	assert.Len(t, store.Transactions("reader"), 1)
}

func TestNonPositiveAmountIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedger(t)

	_, err := svc.Credit(ctx, credit("reader", 0))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.Debit(ctx, debit("reader", -5))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Empty(t, store.Transactions("reader"))
}

func TestFailedWriteLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedger(t)

	store.FailNext("CreateTransaction", errors.New("disk full"))
	_, err := svc.Credit(ctx, credit("reader", 10))
	require.Error(t, err)

	balance, err := svc.GetBalance(ctx, "reader")
	require.NoError(t, err)
	assert.Zero(t, balance.Total)
	assert.Zero(t, balance.Available)
	assert.Empty(t, store.Transactions("reader"))
}

func TestTransactionHistoryIsNewestFirstAndPaginated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLedger(t)

	for i := 1; i <= 5; i++ {
		_, err := svc.Credit(ctx, credit("reader", i))
		require.NoError(t, err)
	}

	page, total, err := svc.GetTransactionHistory(ctx, "reader", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, 5, page[0].Amount)
	assert.Equal(t, 4, page[1].Amount)

	page, _, err = svc.GetTransactionHistory(ctx, "reader", 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 1, page[0].Amount)
	assert.Equal(t, entities.TransactionKindEarn, page[0].Kind)
	assert.Equal(t, fixedNow, page[0].CreatedAt)
}

func TestLockBalanceRequiresTransaction(t *testing.T) {
	svc, _ := newLedger(t)

	_, err := svc.LockBalance(context.Background(), "reader")
	assert.Error(t, err)
}

func TestVerifyLedger(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedger(t)

	_, err := svc.Credit(ctx, credit("reader", 170))
	require.NoError(t, err)
	_, err = svc.Debit(ctx, debit("reader", 150))
	require.NoError(t, err)

	verification, err := svc.VerifyLedger(ctx, "reader")
	require.NoError(t, err)
	assert.True(t, verification.Consistent)
	assert.Equal(t, 170, verification.ReplayedTotal)
	assert.Equal(t, 150, verification.ReplayedUsed)

	store.PutAccount(entities.PointAccount{UserID: "reader", TotalPoints: 500, UsedPoints: 150, AvailablePoints: 350})
	verification, err = svc.VerifyLedger(ctx, "reader")
	assert.ErrorIs(t, err, domain.ErrLedgerMismatch)
	require.NotNil(t, verification)
	assert.False(t, verification.Consistent)
	assert.Equal(t, 500, verification.StoredTotal)
}
