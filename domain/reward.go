package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessHandleEvent = "event processed successfully"
	MessageFailedHandleEvent  = "failed to process event"

	ErrInvalidEvent = errors.New("invalid reward event")
)

const (
	BookStatusCompleted = "completed"

	EventKindBookCompleted = "book_completed"
	EventKindNoteCreated   = "note_created"

	CompletionBasePoints    = 100
	CompletionPageBonus     = 50
	CompletionPageThreshold = 300
	NotePoints              = 2
	NotePointsCapPerBook    = 50

	SkipReasonNotTransition   = "status did not transition to completed"
	SkipReasonDuplicateEvent  = "event already processed"
	SkipReasonAlreadyRewarded = "book already rewarded"
	SkipReasonNoteCapReached  = "note points cap reached for book"
)

type (
	// BookCompleted is raised by the collaborator that updates a reading
	// record's status; it carries both the old and the new status.
	BookCompleted struct {
		EventID        string    `json:"event_id" validate:"max=128"`
		UserID         string    `json:"user_id" validate:"required,max=64"`
		BookRef        string    `json:"book_ref" validate:"required,max=128"`
		BookTitle      string    `json:"book_title" validate:"max=200"`
		TotalPages     int       `json:"total_pages" validate:"min=0"`
		NoteCount      int       `json:"note_count" validate:"min=0"`
		PreviousStatus string    `json:"previous_status" validate:"max=32"`
		Status         string    `json:"status" validate:"required,max=32"`
		OccurredAt     time.Time `json:"occurred_at"`
	}

	NoteCreated struct {
		EventID    string    `json:"event_id" validate:"max=128"`
		UserID     string    `json:"user_id" validate:"required,max=64"`
		BookRef    string    `json:"book_ref" validate:"required,max=128"`
		BookTitle  string    `json:"book_title" validate:"max=200"`
		OccurredAt time.Time `json:"occurred_at"`
	}

	AwardBreakdown struct {
		Base      int `json:"base"`
		PageBonus int `json:"page_bonus"`
		NoteBonus int `json:"note_bonus"`
	}

	RewardResult struct {
		AwardedPoints int             `json:"awarded_points"`
		Breakdown     *AwardBreakdown `json:"breakdown,omitempty"`
		CurrentStreak int             `json:"current_streak"`
		StreakBonus   bool            `json:"streak_bonus"`
		Skipped       bool            `json:"skipped"`
		SkipReason    string          `json:"skip_reason,omitempty"`
	}
)

func (b AwardBreakdown) Total() int {
	return b.Base + b.PageBonus + b.NoteBonus
}
