package reward

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/pkg/coupon"
	"bookflower-loyalty/pkg/ledger"
	"bookflower-loyalty/pkg/streak"
	"context"
)

type (
	DashboardService interface {
		GetSummary(ctx context.Context, userID string) (*domain.PointSummary, error)
		GetDashboard(ctx context.Context, userID string) (*domain.Dashboard, error)
	}

	dashboardService struct {
		ledgerService  ledger.LedgerService
		streakService  streak.StreakService
		catalogService coupon.CatalogService
		couponService  coupon.CouponService
	}
)

func NewDashboardService(
	ledgerService ledger.LedgerService,
	streakService streak.StreakService,
	catalogService coupon.CatalogService,
	couponService coupon.CouponService,
) DashboardService {
	return &dashboardService{
		ledgerService:  ledgerService,
		streakService:  streakService,
		catalogService: catalogService,
		couponService:  couponService,
	}
}

func (s *dashboardService) GetSummary(ctx context.Context, userID string) (*domain.PointSummary, error) {
	balance, err := s.ledgerService.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.streakService.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.PointSummary{
		PointBalance:  *balance,
		CurrentStreak: current.CurrentStreak,
		LongestStreak: current.LongestStreak,
	}, nil
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	balance, err := s.ledgerService.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.streakService.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.ledgerService.GetTransactionHistory(ctx, userID, 1, domain.DashboardRecentSize)
	if err != nil {
		return nil, err
	}
	mine, _, err := s.couponService.GetUserCoupons(ctx, userID, domain.ListCouponsRequest{
		Status: entities.CouponStatusAvailable,
		Page:   1,
		Limit:  domain.DefaultCouponLimit,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Points:             *balance,
		Streak:             *current,
		RecentTransactions: recent,
		AvailableCoupons:   s.catalogService.ListActive(),
		MyCoupons:          mine,
	}, nil
}
