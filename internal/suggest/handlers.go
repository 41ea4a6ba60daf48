package suggest

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"culturecompass/internal/apierr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:id/suggestions", authMiddleware, func(c *fiber.Ctx) error {
		list, err := svc.Suggest(c.Context(), c.Params("id"))
		if errors.Is(err, ErrUnavailable) {
			return apierr.New(fiber.StatusBadGateway, "suggestions_unavailable", FailureMessage)
		}
		if err != nil {
			return apierr.FromDomain(err)
		}
		return c.JSON(fiber.Map{"suggestedComments": list})
	})
}
