package handlers

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/presenters"
	"bookflower-loyalty/pkg/ledger"
	"bookflower-loyalty/pkg/reward"
	"bookflower-loyalty/pkg/streak"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type (
	PointHandler interface {
		GetPoints(c *fiber.Ctx) error
		GetPointHistory(c *fiber.Ctx) error
		VerifyLedger(c *fiber.Ctx) error
		GetStreak(c *fiber.Ctx) error
		GetDashboard(c *fiber.Ctx) error
	}

	pointHandler struct {
		ledgerService    ledger.LedgerService
		streakService    streak.StreakService
		dashboardService reward.DashboardService
	}
)

func NewPointHandler(
	ledgerService ledger.LedgerService,
	streakService streak.StreakService,
	dashboardService reward.DashboardService,
) PointHandler {
	return &pointHandler{
		ledgerService:    ledgerService,
		streakService:    streakService,
		dashboardService: dashboardService,
	}
}

func (h *pointHandler) GetPoints(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	summary, err := h.dashboardService.GetSummary(c.UserContext(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetBalance, err)
	}

	return presenters.SuccessResponse(c, summary, fiber.StatusOK, domain.MessageSuccessGetBalance)
}

func (h *pointHandler) GetPointHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(domain.DefaultHistoryLimit)))
	if err != nil || limit < 1 || limit > domain.MaxHistoryLimit {
		limit = domain.DefaultHistoryLimit
	}

	transactions, count, err := h.ledgerService.GetTransactionHistory(c.UserContext(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetPointHistory, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"transactions": transactions,
		"pagination":   domain.NewPagination(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetPointHistory)
}

func (h *pointHandler) VerifyLedger(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	verification, err := h.ledgerService.VerifyLedger(c.UserContext(), userID)
	if err != nil {
		return presenters.FailureResponse(c, verification, statusFor(err), domain.MessageFailedVerifyLedger, err)
	}

	return presenters.SuccessResponse(c, verification, fiber.StatusOK, domain.MessageSuccessVerifyLedger)
}

func (h *pointHandler) GetStreak(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	current, err := h.streakService.GetStreak(c.UserContext(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetStreak, err)
	}

	return presenters.SuccessResponse(c, current, fiber.StatusOK, domain.MessageSuccessGetStreak)
}

func (h *pointHandler) GetDashboard(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	dashboard, err := h.dashboardService.GetDashboard(c.UserContext(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetDashboard, err)
	}

	return presenters.SuccessResponse(c, dashboard, fiber.StatusOK, domain.MessageSuccessGetDashboard)
}
