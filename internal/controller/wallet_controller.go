package controller

import (
	"subshare-be/internal/dto"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/serverutils"
	"subshare-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWalletController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetBalance(ctx *fiber.Ctx) error
	ListTransactions(ctx *fiber.Ctx) error
	RequestWithdrawal(ctx *fiber.Ctx) error
}

type walletController struct {
	service service.IWalletService
}

func NewWalletController(service service.IWalletService) IWalletController {
	return &walletController{service: service}
}

func (c *walletController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/wallet", auth)
	h.Get("/balance", c.GetBalance)
	h.Get("/transactions", c.ListTransactions)
	h.Post("/withdrawals", c.RequestWithdrawal)
}

func (c *walletController) GetBalance(ctx *fiber.Ctx) error {
	res, err := c.service.ComputeBalances(ctx.UserContext(), serverutils.AccountID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *walletController) ListTransactions(ctx *fiber.Ctx) error {
	var q dto.ListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return apperror.WithError(err).WithHint("invalid query parameters").Mark(apperror.ErrInvalidInput)
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.ListTransactions(ctx.UserContext(), serverutils.AccountID(ctx), q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *walletController) RequestWithdrawal(ctx *fiber.Ctx) error {
	var req dto.WithdrawalRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RequestWithdrawal(ctx.UserContext(), serverutils.AccountID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Withdrawal processed", res))
}
