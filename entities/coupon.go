package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	CouponStatusAvailable = "available"
	CouponStatusUsed      = "used"
	CouponStatusExpired   = "expired"
)

type CouponDefinition struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Type           string    `gorm:"type:varchar(20);not null" json:"type"` // americano, latte, dessert
	RequiredPoints int       `gorm:"not null;check:required_points > 0" json:"required_points"`
	Description    string    `gorm:"type:text" json:"description"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`

	Timestamp
}

type IssuedCoupon struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       string     `gorm:"type:varchar(64);index:idx_issued_coupons_user_status,priority:1;not null" json:"user_id"`
	DefinitionID uuid.UUID  `gorm:"type:uuid;not null" json:"definition_id"`
	Code         string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Status       string     `gorm:"type:varchar(20);index:idx_issued_coupons_user_status,priority:2;not null;default:'available'" json:"status"`
	IssuedAt     time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`

	Definition *CouponDefinition `gorm:"foreignKey:DefinitionID"`
	Timestamp
}
