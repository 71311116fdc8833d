package tour

import (
	"errors"

	"backend-alpineconnect/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, svc *Service, jwtMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req Tour
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Title == "" || req.ParticipantLimit <= 0 || req.RegistrationDeadline.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "title, positive participant_limit and registration_deadline required")
		}
		if req.LeaderID == "" {
			req.LeaderID = auth.UserID(c)
		}
		tour, err := svc.CreateTour(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(tour)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		tours, err := svc.ListTours(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tours)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		tour, err := svc.GetTour(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "tour not found")
		}
		return c.JSON(tour)
	})

	r.Put("/:id", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req TourUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		tour, err := svc.UpdateTour(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tour)
	})

	r.Delete("/:id", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteTour(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/join", jwtMiddleware, func(c *fiber.Ctx) error {
		participant, err := svc.Join(c.Context(), c.Params("id"), auth.UserID(c))
		if err != nil {
			switch {
			case errors.Is(err, ErrTourFull), errors.Is(err, ErrRegistrationClosed), errors.Is(err, ErrAlreadyJoined):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, pgx.ErrNoRows):
				return fiber.NewError(fiber.StatusNotFound, "tour not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	r.Delete("/:id/join", jwtMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Leave(c.Context(), c.Params("id"), auth.UserID(c)); err != nil {
			if errors.Is(err, ErrNotJoined) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/status", jwtMiddleware, func(c *fiber.Ctx) error {
		status, err := svc.Status(c.Context(), c.Params("id"), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"status": status})
	})

	r.Get("/:id/participants", jwtMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		participants, err := svc.Participants(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(participants)
	})
}
