package handlers

import (
	"bookflower-loyalty/domain"
	"errors"

	"github.com/gofiber/fiber/v2"
)

var businessErrors = []struct {
	err    error
	status int
}{
	{domain.ErrCouponDefinitionNotFound, fiber.StatusNotFound},
	{domain.ErrCouponNotFound, fiber.StatusNotFound},
	{domain.ErrCouponAlreadyUsed, fiber.StatusConflict},
	{domain.ErrCouponExpired, fiber.StatusConflict},
	{domain.ErrInsufficientBalance, fiber.StatusUnprocessableEntity},
	{domain.ErrInactiveDefinition, fiber.StatusUnprocessableEntity},
	{domain.ErrInvalidAmount, fiber.StatusBadRequest},
	{domain.ErrInvalidEvent, fiber.StatusBadRequest},
	{domain.ErrInvalidCouponStatus, fiber.StatusBadRequest},
	{domain.ErrLedgerMismatch, fiber.StatusConflict},
}

func statusFor(err error) int {
	for _, b := range businessErrors {
		if errors.Is(err, b.err) {
			return b.status
		}
	}
	return fiber.StatusInternalServerError
}

// reasonFor returns the message of the business error behind err, without the wrapping context.
func reasonFor(err error) string {
	for _, b := range businessErrors {
		if errors.Is(err, b.err) {
			return b.err.Error()
		}
	}
	return domain.MessageFailedProcessRequest
}
