package serverutils

import (
	"encoding/json"
	"strings"

	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by later handlers. Taxonomy
// errors map to their HTTP status and code; the message is the first hint.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
	}

	status := apperror.HTTPStatusFromErr(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("HTTP", "Request failed", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		})
	}

	res := ErrorResponse(status, apperror.Hint(err))
	res.Error = &ErrorDetail{
		Code:    apperror.Code(err),
		Details: safeDetails(err),
	}
	return ctx.Status(status).JSON(res)
}

func safeDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var fields map[string]any
			if json.Unmarshal([]byte(jsonStr), &fields) == nil {
				for k, v := range fields {
					details[k] = v
				}
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
