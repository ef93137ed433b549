package controller

import (
	"subshare-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.NewErrorf("invalid %s %q", name, ctx.Params(name)).
			WithHintf("%s must be a UUID", name).
			Mark(apperror.ErrInvalidInput)
	}
	return id, nil
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.WithError(err).
			WithHint("request body is not valid JSON").
			Mark(apperror.ErrInvalidInput)
	}
	return nil
}
