package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionKindEarn = "earn"
	TransactionKindUse  = "use"
)

type PointAccount struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID          string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	TotalPoints     int       `gorm:"not null;default:0;check:total_points >= 0" json:"total_points"`
	UsedPoints      int       `gorm:"not null;default:0;check:used_points >= 0" json:"used_points"`
	AvailablePoints int       `gorm:"not null;default:0;check:available_points >= 0" json:"available_points"`

	Timestamp
}

// PointTransaction is append-only: rows are inserted and never updated or deleted.
type PointTransaction struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID  string    `gorm:"type:varchar(64);index:idx_point_transactions_user_created,priority:1;not null" json:"user_id"`
	Amount  int       `gorm:"not null;check:amount > 0" json:"amount"`
	Kind    string    `gorm:"type:varchar(8);not null" json:"kind"`
	Source  string    `gorm:"type:varchar(32);not null" json:"source"`
	BookRef string    `gorm:"type:varchar(128);index" json:"book_ref,omitempty"`
	Reason  string    `gorm:"type:varchar(255);not null" json:"reason"`

	CreatedAt time.Time `gorm:"index:idx_point_transactions_user_created,priority:2,sort:desc" json:"created_at"`
}
