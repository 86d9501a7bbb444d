package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	AwardKindBookCompletion = "book_completion"
	AwardKindNote           = "note"
)

// RewardAward accumulates what a user has been awarded for one book, per award kind.
type RewardAward struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID  string    `gorm:"type:varchar(64);uniqueIndex:idx_reward_awards_key,priority:1;not null" json:"user_id"`
	BookRef string    `gorm:"type:varchar(128);uniqueIndex:idx_reward_awards_key,priority:2;not null" json:"book_ref"`
	Kind    string    `gorm:"type:varchar(32);uniqueIndex:idx_reward_awards_key,priority:3;not null" json:"kind"`
	Amount  int       `gorm:"not null;default:0" json:"amount"`
	Count   int       `gorm:"not null;default:0" json:"count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProcessedEvent struct {
	EventID     string    `gorm:"type:varchar(128);primaryKey" json:"event_id"`
	Kind        string    `gorm:"type:varchar(32);not null" json:"kind"`
	UserID      string    `gorm:"type:varchar(64);not null" json:"user_id"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}
