package controller

import (
	"context"

	"subshare-be/internal/dto"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/serverutils"
	"subshare-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Reactivate(ctx *fiber.Ctx) error
	Suspend(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	CreateInitialCharge(ctx *fiber.Ctx) error
	ListCharges(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	service service.ISubscriptionService
	billing service.IBillingService
}

func NewSubscriptionController(service service.ISubscriptionService, billing service.IBillingService) ISubscriptionController {
	return &subscriptionController{service: service, billing: billing}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/subscriptions", auth)
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:id", c.Get)
	h.Post("/:id/cancel", c.Cancel)
	h.Post("/:id/reactivate", c.Reactivate)
	h.Post("/:id/suspend", c.Suspend)
	h.Post("/:id/resume", c.Resume)
	h.Post("/:id/initial-charge", c.CreateInitialCharge)
	h.Get("/:id/charges", c.ListCharges)
}

func (c *subscriptionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSubscriptionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.AccountID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Subscription created", res))
}

func (c *subscriptionController) List(ctx *fiber.Ctx) error {
	var q dto.SubscriptionListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return apperror.WithError(err).WithHint("invalid query parameters").Mark(apperror.ErrInvalidInput)
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), serverutils.AccountID(ctx), q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *subscriptionController) Get(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Get(ctx.UserContext(), serverutils.AccountID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *subscriptionController) Cancel(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.CancelSubscriptionRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Cancel(ctx.UserContext(), serverutils.AccountID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription canceled", res))
}

func (c *subscriptionController) Reactivate(ctx *fiber.Ctx) error {
	return c.lifecycle(ctx, "Subscription reactivated", c.service.Reactivate)
}

func (c *subscriptionController) Suspend(ctx *fiber.Ctx) error {
	return c.lifecycle(ctx, "Subscription suspended", c.service.Suspend)
}

func (c *subscriptionController) Resume(ctx *fiber.Ctx) error {
	return c.lifecycle(ctx, "Subscription resumed", c.service.Resume)
}

func (c *subscriptionController) lifecycle(ctx *fiber.Ctx, message string, op func(ctx context.Context, accountId, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := op(ctx.UserContext(), serverutils.AccountID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *subscriptionController) CreateInitialCharge(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.billing.CreateInitialCharge(ctx.UserContext(), serverutils.AccountID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Charge created", res))
}

func (c *subscriptionController) ListCharges(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.billing.ListCharges(ctx.UserContext(), serverutils.AccountID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}
