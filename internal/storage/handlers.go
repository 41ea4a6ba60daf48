package storage

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
	"culturecompass/internal/composer"
)

// RegisterRoutes exposes a standalone image upload so clients can upload
// before composing a route.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, log *zap.SugaredLogger) {
	r.Post("/images", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image file required")
		}
		data, mime, err := composer.ReadImage(fh)
		if err != nil {
			return apierr.New(fiber.StatusUnprocessableEntity, "invalid_image", err.Error())
		}
		userID := auth.IdentityFrom(c).ID
		obj, err := svc.Upload(c.Context(), userID, data, mime)
		if err != nil {
			log.Errorw("image upload failed", "user_id", userID, "error", err)
			return fiber.NewError(fiber.StatusBadGateway, "Could not upload image. Please try again.")
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})
}
