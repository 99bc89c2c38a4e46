package serverutils

import (
	"errors"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into a
// BaseResponse. Only the public message of an apperror reaches the client;
// causes and unknown errors are logged.
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
	if appErr, ok := apperror.As(err); ok {
		if appErr.Status >= fiber.StatusInternalServerError {
			log.Error("HTTP", appErr.Message, map[string]interface{}{
				"error":  err.Error(),
				"kind":   string(appErr.Kind),
				"method": ctx.Method(),
				"path":   ctx.Path(),
			})
		}
		res := ErrorResponse(appErr.Status, appErr.Message)
		res.Details = appErr.Details
		return ctx.Status(appErr.Status).JSON(res)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	log.Error("HTTP", "Unhandled error", map[string]interface{}{
		"error":  err.Error(),
		"method": ctx.Method(),
		"path":   ctx.Path(),
	})
	return ctx.Status(fiber.StatusInternalServerError).
		JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
}
