package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetCouponDefinitions = "coupons retrieved successfully"
	MessageSuccessGetMyCoupons         = "my coupons retrieved successfully"
	MessageSuccessExchangeCoupon       = "coupon exchanged successfully"
	MessageSuccessRedeemCoupon         = "coupon redeemed successfully"
	MessageSuccessGetCoupon            = "coupon retrieved successfully"
	MessageSuccessReloadCatalog        = "coupon catalog reloaded successfully"
	MessageSuccessUpdateDefinition     = "coupon definition updated successfully"

	MessageFailedGetCouponDefinitions = "failed to retrieve coupons"
	MessageFailedGetMyCoupons         = "failed to retrieve my coupons"
	MessageFailedExchangeCoupon       = "failed to exchange coupon"
	MessageFailedRedeemCoupon         = "failed to redeem coupon"
	MessageFailedGetCoupon            = "failed to retrieve coupon"
	MessageFailedReloadCatalog        = "failed to reload coupon catalog"
	MessageFailedUpdateDefinition     = "failed to update coupon definition"

	ErrInactiveDefinition       = errors.New("coupon definition is not active")
	ErrCouponDefinitionNotFound = errors.New("coupon definition not found")
	ErrCouponNotFound           = errors.New("coupon not found")
	ErrCouponExpired            = errors.New("coupon expired")
	ErrCouponAlreadyUsed        = errors.New("coupon already used")
	ErrInvalidCouponStatus      = errors.New("invalid coupon status")

	// ErrDuplicateCouponCode is returned by the repository when a generated code
	// collides with an existing one. The lifecycle service retries on it.
	ErrDuplicateCouponCode = errors.New("duplicate coupon code")
	ErrCouponCodeExhausted = errors.New("could not generate a unique coupon code")
)

const (
	CouponValidity        = 30 * 24 * time.Hour
	CouponCodeLength      = 12
	CouponCodeMaxAttempts = 5
	DefaultCouponLimit    = 10
)

type (
	CouponDefinition struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Type           string `json:"coupon_type"`
		RequiredPoints int    `json:"required_points"`
		Description    string `json:"description"`
		IsActive       bool   `json:"is_active"`
	}

	IssuedCoupon struct {
		ID           string     `json:"id"`
		UserID       string     `json:"user_id"`
		DefinitionID string     `json:"definition_id"`
		CouponName   string     `json:"coupon_name"`
		CouponType   string     `json:"coupon_type"`
		Code         string     `json:"coupon_code"`
		Status       string     `json:"status"`
		IssuedAt     time.Time  `json:"issued_at"`
		ExpiresAt    time.Time  `json:"expires_at"`
		UsedAt       *time.Time `json:"used_at"`
	}

	ListCouponsRequest struct {
		Status string `query:"status" validate:"omitempty,oneof=available used expired"`
		Page   int    `query:"page" validate:"min=1"`
		Limit  int    `query:"limit" validate:"min=1,max=100"`
	}

	ExchangeCouponResponse struct {
		Success    bool          `json:"success"`
		CouponCode string        `json:"coupon_code,omitempty"`
		Reason     string        `json:"reason,omitempty"`
		Coupon     *IssuedCoupon `json:"coupon,omitempty"`
	}

	RedeemCouponResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	UpdateDefinitionRequest struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}

	// CouponSeed is one entry of the catalog seed file.
	CouponSeed struct {
		Name           string `yaml:"name" validate:"required,max=100"`
		Type           string `yaml:"coupon_type" validate:"required,max=20"`
		RequiredPoints int    `yaml:"required_points" validate:"required,gt=0"`
		Description    string `yaml:"description"`
		IsActive       *bool  `yaml:"is_active"`
	}
)
