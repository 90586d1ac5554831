package serverutils

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// WebResponse is the envelope every REST endpoint returns.
type WebResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseResponse is the typed view of WebResponse for decoding on the client
// side (tests, scripts).
type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse(code int, data interface{}) WebResponse {
	return WebResponse{
		Success: true,
		Code:    code,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) WebResponse {
	return WebResponse{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ErrorHandlerMiddleware recovers panics and normalizes unhandled fiber
// errors into the WebResponse envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %v (path: %s)", r, ctx.Path())
				_ = ctx.Status(fiber.StatusInternalServerError).
					JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
			}
		}()

		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
