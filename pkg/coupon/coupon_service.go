package coupon

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/metrics"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/internal/utils/database"
	"bookflower-loyalty/pkg/ledger"
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type (
	CouponService interface {
		IssueCoupon(ctx context.Context, userID, definitionID string) (*domain.IssuedCoupon, error)
		// RedeemCoupon needs no user identity; whoever holds the code may redeem it.
		RedeemCoupon(ctx context.Context, code string) (*domain.IssuedCoupon, error)
		GetCoupon(ctx context.Context, code string) (*domain.IssuedCoupon, error)
		GetUserCoupons(ctx context.Context, userID string, req domain.ListCouponsRequest) ([]*domain.IssuedCoupon, int64, error)
	}

	couponService struct {
		couponRepository CouponRepository
		catalogService   CatalogService
		ledgerService    ledger.LedgerService
		transactor       database.Transactor
		codeGenerator    CodeGenerator
		clock            utils.Clock
	}
)

func NewCouponService(
	couponRepository CouponRepository,
	catalogService CatalogService,
	ledgerService ledger.LedgerService,
	transactor database.Transactor,
	codeGenerator CodeGenerator,
	clock utils.Clock,
) CouponService {
	return &couponService{
		couponRepository: couponRepository,
		catalogService:   catalogService,
		ledgerService:    ledgerService,
		transactor:       transactor,
		codeGenerator:    codeGenerator,
		clock:            clock,
	}
}

func (s *couponService) IssueCoupon(ctx context.Context, userID, definitionID string) (*domain.IssuedCoupon, error) {
	definition, err := s.catalogService.GetDefinition(definitionID)
	if err != nil {
		return nil, err
	}
	if !definition.IsActive {
		return nil, domain.ErrInactiveDefinition
	}

	var issued *entities.IssuedCoupon
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ledgerService.Debit(ctx, domain.PointRequest{
			UserID: userID,
			Amount: definition.RequiredPoints,
			Source: domain.SourceCouponExchange,
			Reason: fmt.Sprintf("%s redemption", definition.Name),
		}); err != nil {
			return err
		}

		now := s.clock.Now()
		for attempt := 1; attempt <= domain.CouponCodeMaxAttempts; attempt++ {
			code, err := s.codeGenerator.Generate()
			if err != nil {
				return err
			}

			coupon := &entities.IssuedCoupon{
				ID:           uuid.New(),
				UserID:       userID,
				DefinitionID: uuid.MustParse(definition.ID),
				Code:         code,
				Status:       entities.CouponStatusAvailable,
				IssuedAt:     now,
				ExpiresAt:    now.Add(domain.CouponValidity),
			}
			err = s.couponRepository.CreateIssuedCoupon(ctx, coupon)
			if errors.Is(err, domain.ErrDuplicateCouponCode) {
				metrics.CouponCodeCollisions.Inc()
				log.Warnf("coupon code collision on attempt %d/%d", attempt, domain.CouponCodeMaxAttempts)
				continue
			}
			if err != nil {
				return err
			}

			issued = coupon
			return nil
		}
		return domain.ErrCouponCodeExhausted
	})
	if err != nil {
		return nil, fmt.Errorf("issue %s to %s: %w", definition.Name, userID, err)
	}

	metrics.CouponsIssued.WithLabelValues(definition.Type).Inc()
	log.Infof("coupon issued: user=%s coupon=%s code=%s", userID, definition.Name, issued.Code)
	return s.toDomainCoupon(issued), nil
}

func (s *couponService) RedeemCoupon(ctx context.Context, code string) (*domain.IssuedCoupon, error) {
	var coupon *entities.IssuedCoupon
	var outcome error
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		coupon, err = s.couponRepository.LockIssuedCouponByCode(ctx, code)
		if err != nil {
			return err
		}

		if coupon.Status != entities.CouponStatusAvailable {
			outcome = fmt.Errorf("%w: status %s", domain.ErrCouponAlreadyUsed, coupon.Status)
			return nil
		}

		now := s.clock.Now()
		if now.After(coupon.ExpiresAt) {
			coupon.Status = entities.CouponStatusExpired
			outcome = domain.ErrCouponExpired
		} else {
			coupon.Status = entities.CouponStatusUsed
			coupon.UsedAt = &now
		}
		// the expired transition commits too
		return s.couponRepository.SaveIssuedCoupon(ctx, coupon)
	})
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues(redemptionOutcome(err)).Inc()
		return nil, err
	}

	metrics.CouponRedemptions.WithLabelValues(redemptionOutcome(outcome)).Inc()
	if outcome != nil {
		log.Infof("coupon redemption rejected: code=%s reason=%v", code, outcome)
		return s.toDomainCoupon(coupon), outcome
	}

	log.Infof("coupon redeemed: code=%s user=%s", code, coupon.UserID)
	return s.toDomainCoupon(coupon), nil
}

// GetCoupon returns the coupon for code, expiring it first if it is overdue.
func (s *couponService) GetCoupon(ctx context.Context, code string) (*domain.IssuedCoupon, error) {
	var coupon *entities.IssuedCoupon
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		coupon, err = s.couponRepository.LockIssuedCouponByCode(ctx, code)
		if err != nil {
			return err
		}

		if coupon.Status == entities.CouponStatusAvailable && s.clock.Now().After(coupon.ExpiresAt) {
			coupon.Status = entities.CouponStatusExpired
			return s.couponRepository.SaveIssuedCoupon(ctx, coupon)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.toDomainCoupon(coupon), nil
}

func (s *couponService) GetUserCoupons(ctx context.Context, userID string, req domain.ListCouponsRequest) ([]*domain.IssuedCoupon, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > domain.MaxHistoryLimit {
		req.Limit = domain.DefaultCouponLimit
	}

	expired, err := s.couponRepository.ExpireOverdueCoupons(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, 0, err
	}
	if expired > 0 {
		log.Infof("expired %d overdue coupons for %s", expired, userID)
	}

	coupons, count, err := s.couponRepository.GetUserCoupons(ctx, userID, req.Status, req.Page, req.Limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.IssuedCoupon, 0, len(coupons))
	for _, coupon := range coupons {
		result = append(result, s.toDomainCoupon(coupon))
	}
	return result, count, nil
}

func (s *couponService) toDomainCoupon(coupon *entities.IssuedCoupon) *domain.IssuedCoupon {
	result := &domain.IssuedCoupon{
		ID:           coupon.ID.String(),
		UserID:       coupon.UserID,
		DefinitionID: coupon.DefinitionID.String(),
		Code:         coupon.Code,
		Status:       coupon.Status,
		IssuedAt:     coupon.IssuedAt,
		ExpiresAt:    coupon.ExpiresAt,
		UsedAt:       coupon.UsedAt,
	}

	if coupon.Definition != nil {
		result.CouponName = coupon.Definition.Name
		result.CouponType = coupon.Definition.Type
	} else if definition, err := s.catalogService.GetDefinition(result.DefinitionID); err == nil {
		result.CouponName = definition.Name
		result.CouponType = definition.Type
	}
	return result
}

func redemptionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCouponNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCouponExpired):
		return "expired"
	case errors.Is(err, domain.ErrCouponAlreadyUsed):
		return "already_used"
	default:
		return "error"
	}
}
