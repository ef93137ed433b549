package controller

import (
	"subshare-be/internal/dto"
	"subshare-be/internal/pkg/serverutils"
	"subshare-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IServiceInstanceController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	AdjustPrice(ctx *fiber.Ctx) error
}

type serviceInstanceController struct {
	service service.IServiceInstanceService
	billing service.IBillingService
}

func NewServiceInstanceController(service service.IServiceInstanceService, billing service.IBillingService) IServiceInstanceController {
	return &serviceInstanceController{service: service, billing: billing}
}

func (c *serviceInstanceController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/service-instances", auth)
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:id", c.Get)
	h.Put("/:id/price", c.AdjustPrice)
}

func (c *serviceInstanceController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateServiceInstanceRequest
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
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Service instance created", res))
}

func (c *serviceInstanceController) Get(ctx *fiber.Ctx) error {
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

func (c *serviceInstanceController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), serverutils.AccountID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

// AdjustPrice changes the monthly price and reprices pending charges.
func (c *serviceInstanceController) AdjustPrice(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.AdjustPriceRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.billing.AdjustPendingCharges(ctx.UserContext(), serverutils.AccountID(ctx), id, req.NewMonthlyUnitPrice)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Price adjusted", res))
}
