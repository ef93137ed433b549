package controller

import (
	"subshare-be/internal/dto"
	"subshare-be/internal/pkg/serverutils"
	"subshare-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	RunRenewals(ctx *fiber.Ctx) error
	ConfirmPayment(ctx *fiber.Ctx) error
}

type billingController struct {
	service service.IBillingService
}

func NewBillingController(service service.IBillingService) IBillingController {
	return &billingController{service: service}
}

func (c *billingController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Post("/billing/renewals", auth, c.RunRenewals)
	r.Post("/charges/:id/confirm", auth, c.ConfirmPayment)
}

// RunRenewals sweeps the caller's own subscriptions. The scheduler sweeps all
// accounts.
func (c *billingController) RunRenewals(ctx *fiber.Ctx) error {
	accountId := serverutils.AccountID(ctx)
	if accountId == uuid.Nil {
		return fiber.ErrUnauthorized
	}
	res, err := c.service.RunRenewalSweep(ctx.UserContext(), accountId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Renewal sweep finished", res))
}

func (c *billingController) ConfirmPayment(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.ConfirmPaymentRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ConfirmPayment(ctx.UserContext(), serverutils.AccountID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Payment confirmed", res))
}
