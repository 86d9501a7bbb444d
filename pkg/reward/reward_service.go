package reward

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/metrics"
	"bookflower-loyalty/internal/utils"
	"bookflower-loyalty/internal/utils/database"
	"bookflower-loyalty/pkg/ledger"
	"bookflower-loyalty/pkg/streak"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
)

type (
	// RewardService turns reading events into point credits and streak updates.
	// Collaborators call it directly after they persist the change that raised the event.
	RewardService interface {
		HandleBookCompleted(ctx context.Context, event domain.BookCompleted) (*domain.RewardResult, error)
		HandleNoteCreated(ctx context.Context, event domain.NoteCreated) (*domain.RewardResult, error)
	}

	rewardService struct {
		rewardRepository RewardRepository
		ledgerService    ledger.LedgerService
		streakService    streak.StreakService
		transactor       database.Transactor
		validate         *validator.Validate
		clock            utils.Clock
		location         *time.Location
	}
)

func NewRewardService(
	rewardRepository RewardRepository,
	ledgerService ledger.LedgerService,
	streakService streak.StreakService,
	transactor database.Transactor,
	validate *validator.Validate,
	clock utils.Clock,
	location *time.Location,
) RewardService {
	if location == nil {
		location = time.UTC
	}
	return &rewardService{
		rewardRepository: rewardRepository,
		ledgerService:    ledgerService,
		streakService:    streakService,
		transactor:       transactor,
		validate:         validate,
		clock:            clock,
		location:         location,
	}
}

// CompletionAward computes the points for finishing a book.
func CompletionAward(totalPages, noteCount int) domain.AwardBreakdown {
	breakdown := domain.AwardBreakdown{Base: domain.CompletionBasePoints}
	if totalPages >= domain.CompletionPageThreshold {
		breakdown.PageBonus = domain.CompletionPageBonus
	}
	breakdown.NoteBonus = min(noteCount*domain.NotePoints, domain.NotePointsCapPerBook)
	return breakdown
}

func (s *rewardService) HandleBookCompleted(ctx context.Context, event domain.BookCompleted) (*domain.RewardResult, error) {
	if err := s.validate.Struct(event); err != nil {
		metrics.EventsProcessed.WithLabelValues(domain.EventKindBookCompleted, "invalid").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	if event.Status != domain.BookStatusCompleted || event.PreviousStatus == domain.BookStatusCompleted {
		metrics.EventsProcessed.WithLabelValues(domain.EventKindBookCompleted, "skipped").Inc()
		return skipped(domain.SkipReasonNotTransition), nil
	}

	var result *domain.RewardResult
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		fresh, err := s.markProcessed(ctx, event.EventID, domain.EventKindBookCompleted, event.UserID)
		if err != nil {
			return err
		}
		if !fresh {
			result = skipped(domain.SkipReasonDuplicateEvent)
			return nil
		}

		award, err := s.rewardRepository.LockAward(ctx, event.UserID, event.BookRef, entities.AwardKindBookCompletion)
		if err != nil {
			return err
		}
		if award.Count > 0 {
			result = skipped(domain.SkipReasonAlreadyRewarded)
			return nil
		}

		breakdown := CompletionAward(event.TotalPages, event.NoteCount)
		if _, err := s.ledgerService.Credit(ctx, domain.PointRequest{
			UserID:  event.UserID,
			Amount:  breakdown.Total(),
			Source:  domain.SourceBookCompletion,
			BookRef: event.BookRef,
			Reason:  completionReason(bookLabel(event.BookTitle, event.BookRef), breakdown),
		}); err != nil {
			return err
		}

		award.Amount += breakdown.Total()
		award.Count++
		if err := s.rewardRepository.SaveAward(ctx, award); err != nil {
			return err
		}

		update, err := s.streakService.UpdateStreak(ctx, event.UserID, s.activityDate(event.OccurredAt))
		if err != nil {
			return err
		}

		result = &domain.RewardResult{
			AwardedPoints: breakdown.Total(),
			Breakdown:     &breakdown,
			CurrentStreak: update.CurrentStreak,
			StreakBonus:   update.BonusAwarded,
		}
		return nil
	})
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(domain.EventKindBookCompleted, "error").Inc()
		return nil, fmt.Errorf("handle book completed for %s: %w", event.UserID, err)
	}

	s.record(domain.EventKindBookCompleted, event.UserID, event.BookRef, result)
	return result, nil
}

func (s *rewardService) HandleNoteCreated(ctx context.Context, event domain.NoteCreated) (*domain.RewardResult, error) {
	if err := s.validate.Struct(event); err != nil {
		metrics.EventsProcessed.WithLabelValues(domain.EventKindNoteCreated, "invalid").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	var result *domain.RewardResult
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		fresh, err := s.markProcessed(ctx, event.EventID, domain.EventKindNoteCreated, event.UserID)
		if err != nil {
			return err
		}
		if !fresh {
			result = skipped(domain.SkipReasonDuplicateEvent)
			return nil
		}

		award, err := s.rewardRepository.LockAward(ctx, event.UserID, event.BookRef, entities.AwardKindNote)
		if err != nil {
			return err
		}

		result = &domain.RewardResult{}
		if remaining := domain.NotePointsCapPerBook - award.Amount; remaining > 0 {
			amount := min(domain.NotePoints, remaining)
			if _, err := s.ledgerService.Credit(ctx, domain.PointRequest{
				UserID:  event.UserID,
				Amount:  amount,
				Source:  domain.SourceNote,
				BookRef: event.BookRef,
				Reason:  fmt.Sprintf("'%s' note (+%d)", bookLabel(event.BookTitle, event.BookRef), amount),
			}); err != nil {
				return err
			}

			award.Amount += amount
			award.Count++
			if err := s.rewardRepository.SaveAward(ctx, award); err != nil {
				return err
			}
			result.AwardedPoints = amount
		} else {
			result.Skipped = true
			result.SkipReason = domain.SkipReasonNoteCapReached
		}

		// a capped note is still reading activity
		update, err := s.streakService.UpdateStreak(ctx, event.UserID, s.activityDate(event.OccurredAt))
		if err != nil {
			return err
		}
		result.CurrentStreak = update.CurrentStreak
		result.StreakBonus = update.BonusAwarded
		return nil
	})
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(domain.EventKindNoteCreated, "error").Inc()
		return nil, fmt.Errorf("handle note created for %s: %w", event.UserID, err)
	}

	s.record(domain.EventKindNoteCreated, event.UserID, event.BookRef, result)
	return result, nil
}

// markProcessed records the event id in the inbox. Events without an id are always fresh.
func (s *rewardService) markProcessed(ctx context.Context, eventID, kind, userID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return s.rewardRepository.MarkEventProcessed(ctx, &entities.ProcessedEvent{
		EventID:     eventID,
		Kind:        kind,
		UserID:      userID,
		ProcessedAt: s.clock.Now(),
	})
}

func (s *rewardService) activityDate(occurredAt time.Time) time.Time {
	if occurredAt.IsZero() {
		return s.clock.Now().In(s.location)
	}
	return occurredAt.In(s.location)
}

func (s *rewardService) record(kind, userID, bookRef string, result *domain.RewardResult) {
	outcome := "awarded"
	if result.AwardedPoints == 0 {
		outcome = "skipped"
	}
	metrics.EventsProcessed.WithLabelValues(kind, outcome).Inc()

	if result.AwardedPoints == 0 {
		log.Infof("%s skipped: user=%s book=%s reason=%s", kind, userID, bookRef, result.SkipReason)
		return
	}
	log.Infof("%s rewarded: user=%s book=%s points=%d streak=%d", kind, userID, bookRef, result.AwardedPoints, result.CurrentStreak)
}

const bookLabelMaxLength = 150

func skipped(reason string) *domain.RewardResult {
	return &domain.RewardResult{Skipped: true, SkipReason: reason}
}

// bookLabel is truncated so every reason fits the varchar(255) column.
func bookLabel(title, bookRef string) string {
	label := bookRef
	if title != "" {
		label = title
	}
	if runes := []rune(label); len(runes) > bookLabelMaxLength {
		return string(runes[:bookLabelMaxLength-3]) + "..."
	}
	return label
}

func completionReason(book string, breakdown domain.AwardBreakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' completed", book)
	if breakdown.PageBonus > 0 {
		fmt.Fprintf(&b, " page bonus(+%d)", breakdown.PageBonus)
	}
	if breakdown.NoteBonus > 0 {
		fmt.Fprintf(&b, " note bonus(+%d)", breakdown.NoteBonus)
	}
	fmt.Fprintf(&b, " - total %d points", breakdown.Total())
	return b.String()
}
