package profile

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"culturecompass/internal/auth"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/profile", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), auth.IdentityFrom(c).ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(p)
	})

	r.Put("/profile", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Update(c.Context(), auth.IdentityFrom(c).ID, req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(p)
	})
}

func httpError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &verrs):
		return fiber.NewError(fiber.StatusUnprocessableEntity, verrs[0].Field()+" is invalid")
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not complete operation, please try again")
	}
}
