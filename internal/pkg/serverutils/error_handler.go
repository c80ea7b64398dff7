package serverutils

import (
	"context"
	"encoding/json"
	"errors"

	"flowershop-chat-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error coming out of a handler to its HTTP status.
func StatusFor(err error) int {
	var verr *ValidationError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var fe *fiber.Error

	switch {
	case errors.As(err, &verr), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case rag.IsTurnFailure(err):
		return fiber.StatusBadGateway
	case errors.As(err, &fe):
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders any error returned down the chain as an
// ErrorResponse envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
