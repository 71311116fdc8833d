package gear

import (
	"errors"

	"backend-alpineconnect/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, svc *Service, jwtMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req Material
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.QuantityAvailable < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "name and non-negative quantity_available required")
		}
		material, err := svc.CreateMaterial(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(material)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		materials, err := svc.ListMaterials(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(materials)
	})

	// Registered before /:id so the literal segment wins over the param.
	r.Get("/reservations/mine", jwtMiddleware, func(c *fiber.Ctx) error {
		reservations, err := svc.ReservationsForUser(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reservations)
	})

	r.Post("/reservations/:id/decision", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req DecisionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		reservation, err := svc.Decide(c.Context(), c.Params("id"), req.Decision)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidDecision):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrInsufficientStock):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, pgx.ErrNoRows):
				return fiber.NewError(fiber.StatusNotFound, "reservation not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reservation)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		material, err := svc.GetMaterial(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "material not found")
		}
		return c.JSON(material)
	})

	r.Put("/:id", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req MaterialUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		material, err := svc.UpdateMaterial(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(material)
	})

	r.Delete("/:id", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteMaterial(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/reservations", jwtMiddleware, func(c *fiber.Ctx) error {
		var req ReservationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		reservation, err := svc.RequestReservation(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidDateRange):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, ErrInsufficientStock):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, pgx.ErrNoRows):
				return fiber.NewError(fiber.StatusNotFound, "material not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(reservation)
	})

	r.Get("/:id/reservations", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		reservations, err := svc.ReservationsForMaterial(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reservations)
	})
}
