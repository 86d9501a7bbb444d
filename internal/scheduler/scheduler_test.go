package scheduler_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/scheduler"
	"bookflower-loyalty/internal/testutil/memstore"
	"bookflower-loyalty/pkg/coupon"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogReloadPicksUpStoreChanges(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	catalog := coupon.NewCatalogService(store)
	_, err := catalog.Seed(ctx, []domain.CouponSeed{{Name: "Americano Coupon", Type: "americano", RequiredPoints: 500}})
	require.NoError(t, err)

	sched, err := scheduler.New(catalog, 20*time.Millisecond)
	require.NoError(t, err)
	sched.Start()
	t.Cleanup(func() { _ = sched.Shutdown() })

	// written by another replica, bypassing this catalog
	_, err = store.CreateDefinitionIfNotExists(ctx, &entities.CouponDefinition{
		ID: uuid.New(), Name: "Dessert Coupon", Type: "dessert", RequiredPoints: 1000, IsActive: true,
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(catalog.ListActive()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
