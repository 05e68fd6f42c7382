package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusError attaches an HTTP status to a service error.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func WithStatus(status int, err error) error {
	return &StatusError{Status: status, Err: err}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// error body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		var se *StatusError
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			code = fiber.StatusBadRequest
		case errors.As(err, &se):
			code = se.Status
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
