package handlers

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/internal/api/presenters"
	"bookflower-loyalty/pkg/coupon"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	CouponHandler interface {
		GetAvailableCoupons(c *fiber.Ctx) error
		GetMyCoupons(c *fiber.Ctx) error
		ExchangeCoupon(c *fiber.Ctx) error
		GetCoupon(c *fiber.Ctx) error
		RedeemCoupon(c *fiber.Ctx) error
		ReloadCatalog(c *fiber.Ctx) error
		UpdateDefinition(c *fiber.Ctx) error
	}

	couponHandler struct {
		couponService  coupon.CouponService
		catalogService coupon.CatalogService
		validator      *validator.Validate
	}
)

func NewCouponHandler(couponService coupon.CouponService, catalogService coupon.CatalogService, validator *validator.Validate) CouponHandler {
	return &couponHandler{
		couponService:  couponService,
		catalogService: catalogService,
		validator:      validator,
	}
}

func (h *couponHandler) GetAvailableCoupons(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, h.catalogService.ListActive(), fiber.StatusOK, domain.MessageSuccessGetCouponDefinitions)
}

func (h *couponHandler) GetMyCoupons(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := domain.ListCouponsRequest{Page: 1, Limit: domain.DefaultCouponLimit}
	if err := c.QueryParser(&req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetMyCoupons, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetMyCoupons, err)
	}

	coupons, count, err := h.couponService.GetUserCoupons(c.UserContext(), userID, req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetMyCoupons, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"coupons":    coupons,
		"pagination": domain.NewPagination(req.Page, req.Limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetMyCoupons)
}

func (h *couponHandler) ExchangeCoupon(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	issued, err := h.couponService.IssueCoupon(c.UserContext(), userID, c.Params("definition_id"))
	if err != nil {
		return presenters.FailureResponse(c, domain.ExchangeCouponResponse{
			Success: false,
			Reason:  reasonFor(err),
		}, statusFor(err), domain.MessageFailedExchangeCoupon, err)
	}

	return presenters.SuccessResponse(c, domain.ExchangeCouponResponse{
		Success:    true,
		CouponCode: issued.Code,
		Coupon:     issued,
	}, fiber.StatusCreated, domain.MessageSuccessExchangeCoupon)
}

func (h *couponHandler) GetCoupon(c *fiber.Ctx) error {
	issued, err := h.couponService.GetCoupon(c.UserContext(), c.Params("code"))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetCoupon, err)
	}

	return presenters.SuccessResponse(c, issued, fiber.StatusOK, domain.MessageSuccessGetCoupon)
}

func (h *couponHandler) RedeemCoupon(c *fiber.Ctx) error {
	_, err := h.couponService.RedeemCoupon(c.UserContext(), c.Params("code"))
	if err != nil {
		message := reasonFor(err)
		if errors.Is(err, domain.ErrCouponExpired) {
			message = "coupon has expired"
		}
		return presenters.FailureResponse(c, domain.RedeemCouponResponse{
			Success: false,
			Message: message,
		}, statusFor(err), domain.MessageFailedRedeemCoupon, err)
	}

	return presenters.SuccessResponse(c, domain.RedeemCouponResponse{
		Success: true,
		Message: domain.MessageSuccessRedeemCoupon,
	}, fiber.StatusOK, domain.MessageSuccessRedeemCoupon)
}

func (h *couponHandler) ReloadCatalog(c *fiber.Ctx) error {
	if err := h.catalogService.Reload(c.UserContext()); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedReloadCatalog, err)
	}

	return presenters.SuccessResponse(c, h.catalogService.ListAll(), fiber.StatusOK, domain.MessageSuccessReloadCatalog)
}

func (h *couponHandler) UpdateDefinition(c *fiber.Ctx) error {
	req := new(domain.UpdateDefinitionRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateDefinition, err)
	}

	definition, err := h.catalogService.SetDefinitionActive(c.UserContext(), c.Params("id"), *req.IsActive)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUpdateDefinition, err)
	}

	return presenters.SuccessResponse(c, definition, fiber.StatusOK, domain.MessageSuccessUpdateDefinition)
}
