package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetBalance      = "point balance retrieved successfully"
	MessageSuccessGetPointHistory = "point history retrieved successfully"
	MessageSuccessVerifyLedger    = "point ledger verified successfully"
	MessageSuccessGetDashboard    = "rewards dashboard retrieved successfully"

	MessageFailedGetBalance      = "failed to retrieve point balance"
	MessageFailedGetPointHistory = "failed to retrieve point history"
	MessageFailedVerifyLedger    = "failed to verify point ledger"
	MessageFailedGetDashboard    = "failed to retrieve rewards dashboard"

	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrInvalidAmount       = errors.New("point amount must be positive")
	ErrLedgerMismatch      = errors.New("point account does not match transaction log")
)

const (
	SourceBookCompletion = "book_completion"
	SourceNote           = "note"
	SourceStreakBonus    = "streak_bonus"
	SourceCouponExchange = "coupon_exchange"

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	DashboardRecentSize = 10
)

type (
	// PointRequest describes one ledger mutation. Source and BookRef are the
	// structured part of the reason; Reason is the human readable text.
	PointRequest struct {
		UserID  string `json:"user_id" validate:"required,max=64"`
		Amount  int    `json:"amount"`
		Source  string `json:"source" validate:"required,max=32"`
		BookRef string `json:"book_ref,omitempty" validate:"max=128"`
		Reason  string `json:"reason" validate:"required,max=255"`
	}

	PointBalance struct {
		UserID    string `json:"user_id"`
		Total     int    `json:"total_points"`
		Available int    `json:"available_points"`
		Used      int    `json:"used_points"`
	}

	PointTransaction struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Amount    int       `json:"amount"`
		Kind      string    `json:"kind"`
		Source    string    `json:"source"`
		BookRef   string    `json:"book_ref,omitempty"`
		Reason    string    `json:"reason"`
		CreatedAt time.Time `json:"created_at"`
	}

	PointSummary struct {
		PointBalance
		CurrentStreak int `json:"current_streak"`
		LongestStreak int `json:"longest_streak"`
	}

	LedgerVerification struct {
		UserID          string `json:"user_id"`
		ReplayedTotal   int    `json:"replayed_total"`
		ReplayedUsed    int    `json:"replayed_used"`
		StoredTotal     int    `json:"stored_total"`
		StoredUsed      int    `json:"stored_used"`
		StoredAvailable int    `json:"stored_available"`
		Consistent      bool   `json:"consistent"`
	}

	Dashboard struct {
		Points             PointBalance        `json:"points"`
		Streak             Streak              `json:"streak"`
		RecentTransactions []*PointTransaction `json:"recent_transactions"`
		AvailableCoupons   []*CouponDefinition `json:"available_coupons"`
		MyCoupons          []*IssuedCoupon     `json:"my_coupons"`
	}
)
