package streak

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"bookflower-loyalty/pkg/ledger"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type (
	StreakService interface {
		// UpdateStreak records reading activity on activityDate (only its calendar
		// date is used). Repeating the last date is a no-op. The day after the last
		// date extends the streak; any other date, earlier or later, resets it to 1.
		UpdateStreak(ctx context.Context, userID string, activityDate time.Time) (*domain.StreakUpdate, error)
		GetStreak(ctx context.Context, userID string) (*domain.Streak, error)
	}

	streakService struct {
		streakRepository StreakRepository
		ledgerService    ledger.LedgerService
		transactor       database.Transactor
	}
)

func NewStreakService(streakRepository StreakRepository, ledgerService ledger.LedgerService, transactor database.Transactor) StreakService {
	return &streakService{
		streakRepository: streakRepository,
		ledgerService:    ledgerService,
		transactor:       transactor,
	}
}

func (s *streakService) UpdateStreak(ctx context.Context, userID string, activityDate time.Time) (*domain.StreakUpdate, error) {
	date := civilDate(activityDate)

	var update *domain.StreakUpdate
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// account before streak
		if _, err := s.ledgerService.LockBalance(ctx, userID); err != nil {
			return err
		}

		record, err := s.streakRepository.LockStreak(ctx, userID)
		if err != nil {
			return err
		}

		changed := advance(record, date)
		update = &domain.StreakUpdate{Streak: toDomainStreak(record), Changed: changed}
		if !changed {
			return nil
		}

		if err := s.streakRepository.SaveStreak(ctx, record); err != nil {
			return err
		}

		if record.CurrentStreak == domain.StreakBonusDays {
			if _, err := s.ledgerService.Credit(ctx, domain.PointRequest{
				UserID: userID,
				Amount: domain.StreakBonusPoints,
				Source: domain.SourceStreakBonus,
				Reason: domain.StreakBonusReason,
			}); err != nil {
				return err
			}
			update.BonusAwarded = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update streak for %s: %w", userID, err)
	}

	if update.Changed {
		log.Infof("streak updated: user=%s current=%d longest=%d bonus=%t",
			userID, update.CurrentStreak, update.LongestStreak, update.BonusAwarded)
	}
	return update, nil
}

func (s *streakService) GetStreak(ctx context.Context, userID string) (*domain.Streak, error) {
	record, err := s.streakRepository.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak := toDomainStreak(record)
	return &streak, nil
}

// advance applies one activity date to record and reports whether it changed.
func advance(record *entities.StreakRecord, date time.Time) bool {
	if record.LastActivityDate != nil {
		last := civilDate(*record.LastActivityDate)
		switch {
		case date.Equal(last):
			return false
		case date.Equal(last.AddDate(0, 0, 1)):
			record.CurrentStreak++
		default:
			record.CurrentStreak = 1
		}
	} else {
		record.CurrentStreak = 1
	}

	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.LastActivityDate = &date
	return true
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toDomainStreak(record *entities.StreakRecord) domain.Streak {
	return domain.Streak{
		UserID:           record.UserID,
		CurrentStreak:    record.CurrentStreak,
		LongestStreak:    record.LongestStreak,
		LastActivityDate: record.LastActivityDate,
	}
}
