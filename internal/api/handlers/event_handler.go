package handlers

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/presenters"
	"bookflower-loyalty/pkg/reward"

	"github.com/gofiber/fiber/v2"
)

type (
	EventHandler interface {
		BookCompleted(c *fiber.Ctx) error
		NoteCreated(c *fiber.Ctx) error
	}

	eventHandler struct {
		rewardService reward.RewardService
	}
)

// NewEventHandler serves the delivery endpoints for reading events. Payload
// validation happens in the reward service so every caller gets the same rules.
func NewEventHandler(rewardService reward.RewardService) EventHandler {
	return &eventHandler{
		rewardService: rewardService,
	}
}

func (h *eventHandler) BookCompleted(c *fiber.Ctx) error {
	req := new(domain.BookCompleted)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	result, err := h.rewardService.HandleBookCompleted(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedHandleEvent, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessHandleEvent)
}

func (h *eventHandler) NoteCreated(c *fiber.Ctx) error {
	req := new(domain.NoteCreated)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	result, err := h.rewardService.HandleNoteCreated(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedHandleEvent, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessHandleEvent)
}
