package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"culturecompass/internal/apierr"
)

// Error is an identity failure with a stable client-facing code.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	ErrInvalidCredential = &Error{"invalid-credential", "Invalid email or password.", fiber.StatusUnauthorized}
	ErrUserNotFound      = &Error{"user-not-found", "No user found with this email address.", fiber.StatusNotFound}
	ErrUserDisabled      = &Error{"user-disabled", "This account has been disabled.", fiber.StatusForbidden}
	ErrTooManyRequests   = &Error{"too-many-requests", "Too many sign-in attempts. Please try again later.", fiber.StatusTooManyRequests}
	ErrNetworkFailure    = &Error{"network-failure", "Network error. Please check your connection and try again.", fiber.StatusServiceUnavailable}
	ErrEmailInUse        = &Error{"email-already-in-use", "An account already exists with this email.", fiber.StatusConflict}
	ErrInvalidToken      = &Error{"invalid-token", "Token is invalid or expired.", fiber.StatusUnauthorized}
)

func invalidArgument(msg string) *Error {
	return &Error{"invalid-argument", msg, fiber.StatusUnprocessableEntity}
}

func networkFailure(op string, err error) error {
	return fmt.Errorf("%w (%s: %v)", ErrNetworkFailure, op, err)
}

func httpError(err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return apierr.New(authErr.Status, authErr.Code, authErr.Message)
	}
	return apierr.FromDomain(err)
}
