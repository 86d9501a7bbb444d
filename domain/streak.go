package domain

import (
	"time"
)

var (
	MessageSuccessGetStreak = "reading streak retrieved successfully"
	MessageFailedGetStreak  = "failed to retrieve reading streak"
)

const (
	StreakBonusDays   = 7
	StreakBonusPoints = 30
	StreakBonusReason = "7-day streak bonus"
)

type Streak struct {
	UserID           string     `json:"user_id"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
}

type StreakUpdate struct {
	Streak
	Changed      bool `json:"changed"`
	BonusAwarded bool `json:"bonus_awarded"`
}
