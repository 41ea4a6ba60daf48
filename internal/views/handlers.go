package views

import (
	"github.com/gofiber/fiber/v2"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
)

// RegisterRoutes mounts the read side. Static paths are registered before
// /routes/:id so they are not captured as ids.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/routes", func(c *fiber.Ctx) error {
		list, err := svc.Discover(c.Context(), c.Query("q"))
		if err != nil {
			return apierr.FromDomain(err)
		}
		return c.JSON(list)
	})

	r.Get("/routes/nearby", func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return apierr.New(fiber.StatusBadRequest, "invalid_query", "lat and lng are required")
		}
		list, err := svc.Nearby(c.Context(), c.QueryFloat("lat"), c.QueryFloat("lng"), c.QueryFloat("radius_km", DefaultRadiusKm))
		if err != nil {
			return apierr.FromDomain(err)
		}
		return c.JSON(list)
	})

	r.Get("/routes/:id", func(c *fiber.Ctx) error {
		d, err := svc.Detail(c.Context(), c.Params("id"))
		if err != nil {
			return apierr.FromDomain(err)
		}
		return c.JSON(d)
	})

	r.Get("/me/routes", authMiddleware, func(c *fiber.Ctx) error {
		list, err := svc.MyRoutes(c.Context(), auth.IdentityFrom(c).ID)
		if err != nil {
			return apierr.FromDomain(err)
		}
		return c.JSON(list)
	})
}
