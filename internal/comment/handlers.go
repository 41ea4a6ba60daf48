package comment

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		created, err := svc.Add(c.Context(), c.Params("id"), auth.IdentityFrom(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.List(c.Context(), c.Params("id"), c.QueryInt("limit", 0))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(comments)
	})
}

func httpError(err error) error {
	var inv *InvalidError
	if errors.As(err, &inv) {
		return &apierr.Error{Status: fiber.StatusUnprocessableEntity, Code: "invalid_comment", Field: inv.Field, Message: inv.Message}
	}
	return apierr.FromDomain(err)
}
