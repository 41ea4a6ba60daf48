// Package apierr maps domain errors onto HTTP responses.
package apierr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"culturecompass/internal/route"
)

// SignInPath is sent with every 401 so clients can redirect.
const SignInPath = "/auth/signin"

const retryMessage = "could not complete operation, please try again"

// Error is an HTTP error with an optional machine code and field.
type Error struct {
	Status   int
	Code     string
	Field    string
	Message  string
	Redirect string
}

func (e *Error) Error() string { return e.Message }

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Code     string `json:"code,omitempty"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// FromDomain converts route errors to HTTP errors. Errors that already carry
// a status pass through.
func FromDomain(err error) error {
	var apiErr *Error
	var fiberErr *fiber.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr), errors.As(err, &fiberErr):
		return err
	case errors.Is(err, route.ErrNotFound):
		return New(fiber.StatusNotFound, "not_found", route.ErrNotFound.Error())
	case errors.Is(err, route.ErrPermissionDenied):
		return New(fiber.StatusForbidden, "permission_denied", route.ErrPermissionDenied.Error())
	case errors.Is(err, route.ErrUnauthenticated):
		return New(fiber.StatusUnauthorized, "auth_required", route.ErrUnauthenticated.Error())
	case errors.Is(err, route.ErrConflict):
		return New(fiber.StatusConflict, "conflict", route.ErrConflict.Error())
	case errors.Is(err, route.ErrInvalidLink):
		return New(fiber.StatusUnprocessableEntity, "invalid_link", route.ErrInvalidLink.Error())
	case errors.Is(err, route.ErrUnavailable):
		return &Error{Status: fiber.StatusServiceUnavailable, Code: "unavailable", Message: retryMessage}
	default:
		return err
	}
}

// Handler renders every error as the JSON envelope and logs server faults.
func Handler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := envelope{Status: fiber.StatusInternalServerError, Message: "internal server error"}

		var apiErr *Error
		var fiberErr *fiber.Error
		if errors.As(FromDomain(err), &apiErr) {
			body.Status = apiErr.Status
			body.Message = apiErr.Message
			body.Code = apiErr.Code
			body.Field = apiErr.Field
			body.Redirect = apiErr.Redirect
		} else if errors.As(err, &fiberErr) {
			body.Status = fiberErr.Code
			body.Message = fiberErr.Message
		}
		if body.Status == fiber.StatusUnauthorized && body.Redirect == "" {
			body.Redirect = SignInPath
		}
		if body.Status >= fiber.StatusInternalServerError {
			log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "status", body.Status, "error", err)
		}
		return c.Status(body.Status).JSON(body)
	}
}
