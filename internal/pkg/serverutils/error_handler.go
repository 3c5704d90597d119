package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-chat-be/internal/apperr"
)

// ErrorHandlerMiddleware converts errors escaping the handlers into JSON
// responses with a status matching their kind. Unknown errors are masked.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return ctx.Status(statusForKind(appErr.Kind)).JSON(ErrorResponse(appErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindUpstreamUnavailable:
		return fiber.StatusBadGateway
	case apperr.KindDeliveryOverrun:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
