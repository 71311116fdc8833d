package seed

import (
	"backend-alpineconnect/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, jwtMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/seed", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.Run(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summary)
	})
}
