package reward_test

import (
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/testutil/mockdb"
	"bookflower-loyalty/pkg/reward"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkEventProcessed(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := reward.NewRewardRepository(db)
	event := &entities.ProcessedEvent{
		EventID:     "evt-1",
		Kind:        "book_completed",
		UserID:      "reader",
		ProcessedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO "processed_events" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "processed_events" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	fresh, err := repo.MarkEventProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.MarkEventProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSaveAwardUpdatesCounters(t *testing.T) {
	db, mock := mockdb.New(t)
	repo := reward.NewRewardRepository(db)

	mock.ExpectExec(`UPDATE "reward_awards" SET "amount"=\$1,"count"=\$2`).
		WithArgs(20, 10, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveAward(context.Background(), &entities.RewardAward{Amount: 20, Count: 10})
	require.NoError(t, err)
}
