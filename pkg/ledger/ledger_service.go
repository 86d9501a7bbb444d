package ledger

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/metrics"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/internal/utils/database"
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type (
	LedgerService interface {
		Credit(ctx context.Context, req domain.PointRequest) (*domain.PointTransaction, error)
		Debit(ctx context.Context, req domain.PointRequest) (*domain.PointTransaction, error)
		GetBalance(ctx context.Context, userID string) (*domain.PointBalance, error)
		// LockBalance must run inside a transaction; the account stays locked until it ends.
		LockBalance(ctx context.Context, userID string) (*domain.PointBalance, error)
		GetTransactionHistory(ctx context.Context, userID string, page, limit int) ([]*domain.PointTransaction, int64, error)
		VerifyLedger(ctx context.Context, userID string) (*domain.LedgerVerification, error)
	}

	ledgerService struct {
		ledgerRepository LedgerRepository
		transactor       database.Transactor
		clock            utils.Clock
	}
)

func NewLedgerService(ledgerRepository LedgerRepository, transactor database.Transactor, clock utils.Clock) LedgerService {
	return &ledgerService{
		ledgerRepository: ledgerRepository,
		transactor:       transactor,
		clock:            clock,
	}
}

func (s *ledgerService) Credit(ctx context.Context, req domain.PointRequest) (*domain.PointTransaction, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var created *entities.PointTransaction
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.ledgerRepository.LockAccount(ctx, req.UserID)
		if err != nil {
			return err
		}

		account.TotalPoints += req.Amount
		account.AvailablePoints += req.Amount
		if err := s.ledgerRepository.SaveAccount(ctx, account); err != nil {
			return err
		}

		created = s.newTransaction(req, entities.TransactionKindEarn)
		return s.ledgerRepository.CreateTransaction(ctx, created)
	})
	if err != nil {
		return nil, fmt.Errorf("credit %d points to %s: %w", req.Amount, req.UserID, err)
	}

	metrics.PointsCredited.WithLabelValues(req.Source).Add(float64(req.Amount))
	log.Infof("points credited: user=%s amount=%d source=%s reason=%q", req.UserID, req.Amount, req.Source, req.Reason)
	return toDomainTransaction(created), nil
}

func (s *ledgerService) Debit(ctx context.Context, req domain.PointRequest) (*domain.PointTransaction, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var created *entities.PointTransaction
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.ledgerRepository.LockAccount(ctx, req.UserID)
		if err != nil {
			return err
		}

		if req.Amount > account.AvailablePoints {
			return domain.ErrInsufficientBalance
		}

		account.UsedPoints += req.Amount
		account.AvailablePoints -= req.Amount
		if err := s.ledgerRepository.SaveAccount(ctx, account); err != nil {
			return err
		}

		created = s.newTransaction(req, entities.TransactionKindUse)
		return s.ledgerRepository.CreateTransaction(ctx, created)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			metrics.DebitsRejected.Inc()
		}
		return nil, fmt.Errorf("debit %d points from %s: %w", req.Amount, req.UserID, err)
	}

	metrics.PointsDebited.WithLabelValues(req.Source).Add(float64(req.Amount))
	log.Infof("points debited: user=%s amount=%d source=%s reason=%q", req.UserID, req.Amount, req.Source, req.Reason)
	return toDomainTransaction(created), nil
}

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (*domain.PointBalance, error) {
	account, err := s.ledgerRepository.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDomainBalance(account), nil
}

func (s *ledgerService) LockBalance(ctx context.Context, userID string) (*domain.PointBalance, error) {
	if !database.InTransaction(ctx) {
		return nil, fmt.Errorf("lock balance for %s: no transaction bound to context", userID)
	}
	account, err := s.ledgerRepository.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDomainBalance(account), nil
}

func (s *ledgerService) GetTransactionHistory(ctx context.Context, userID string, page, limit int) ([]*domain.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > domain.MaxHistoryLimit {
		limit = domain.DefaultHistoryLimit
	}

	transactions, count, err := s.ledgerRepository.GetTransactions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.PointTransaction, 0, len(transactions))
	for _, tx := range transactions {
		result = append(result, toDomainTransaction(tx))
	}
	return result, count, nil
}

// VerifyLedger replays the transaction log and compares it with the stored account.
func (s *ledgerService) VerifyLedger(ctx context.Context, userID string) (*domain.LedgerVerification, error) {
	var verification *domain.LedgerVerification
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.ledgerRepository.LockAccount(ctx, userID)
		if err != nil {
			return err
		}
		earned, used, err := s.ledgerRepository.SumTransactions(ctx, userID)
		if err != nil {
			return err
		}

		verification = &domain.LedgerVerification{
			UserID:          userID,
			ReplayedTotal:   earned,
			ReplayedUsed:    used,
			StoredTotal:     account.TotalPoints,
			StoredUsed:      account.UsedPoints,
			StoredAvailable: account.AvailablePoints,
		}
		verification.Consistent = earned == account.TotalPoints &&
			used == account.UsedPoints &&
			earned-used == account.AvailablePoints
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !verification.Consistent {
		log.Errorf("ledger mismatch for %s: replayed %d/%d, stored %d/%d/%d", userID,
			verification.ReplayedTotal, verification.ReplayedUsed,
			verification.StoredTotal, verification.StoredUsed, verification.StoredAvailable)
		return verification, domain.ErrLedgerMismatch
	}
	return verification, nil
}

func (s *ledgerService) newTransaction(req domain.PointRequest, kind string) *entities.PointTransaction {
	return &entities.PointTransaction{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Amount:    req.Amount,
		Kind:      kind,
		Source:    req.Source,
		BookRef:   req.BookRef,
		Reason:    req.Reason,
		CreatedAt: s.clock.Now(),
	}
}

func toDomainBalance(account *entities.PointAccount) *domain.PointBalance {
	return &domain.PointBalance{
		UserID:    account.UserID,
		Total:     account.TotalPoints,
		Available: account.AvailablePoints,
		Used:      account.UsedPoints,
	}
}

func toDomainTransaction(tx *entities.PointTransaction) *domain.PointTransaction {
	return &domain.PointTransaction{
		ID:        tx.ID.String(),
		UserID:    tx.UserID,
		Amount:    tx.Amount,
		Kind:      tx.Kind,
		Source:    tx.Source,
		BookRef:   tx.BookRef,
		Reason:    tx.Reason,
		CreatedAt: tx.CreatedAt,
	}
}
