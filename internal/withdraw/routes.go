package withdraw

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wager-platform/internal/wallet"
)

func RegisterRoutes(r fiber.Router, service *Service) {

	r.Post("/withdraw/request", func(c *fiber.Ctx) error {
		type Req struct {
			Amount        float64 `json:"amount"`
			Method        string  `json:"method"`
			AccountNumber string  `json:"account_number"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}

		uid, _ := c.Locals("uid").(int64)

		w, err := service.Request(uid, body.Amount, body.Method, body.AccountNumber)
		if err != nil {
			var rle *RateLimitError
			switch {
			case errors.As(err, &rle):
				return c.Status(429).JSON(fiber.Map{
					"error":      "withdrawal limits exceeded",
					"violations": rle.Violations,
				})
			case errors.Is(err, wallet.ErrInsufficientFunds):
				return c.Status(402).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrPendingExists):
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		return c.Status(201).JSON(w)
	})

	r.Get("/withdraw/history/:uid", func(c *fiber.Ctx) error {
		uid, err := c.ParamsInt("uid")
		if err != nil {
			return c.SendStatus(400)
		}
		days := c.QueryInt("days", 30)

		history, err := service.History(int64(uid), days)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"withdrawals": history})
	})

	r.Get("/withdraw/limits", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"windows": Windows()})
	})
}

func RegisterAdminRoutes(r fiber.Router, service *Service) {

	action := func(name string, fn func(id, reason string) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			type Req struct {
				Reason string `json:"reason"`
			}
			var body Req
			c.BodyParser(&body)

			err := fn(c.Params("id"), body.Reason)
			if err != nil {
				switch {
				case errors.Is(err, ErrNotFound):
					return c.Status(404).JSON(fiber.Map{"error": err.Error()})
				case errors.Is(err, ErrAlreadySettled), errors.Is(err, ErrBadTransition):
					return c.Status(409).JSON(fiber.Map{"error": err.Error()})
				}
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			return c.JSON(fiber.Map{"status": name})
		}
	}

	r.Post("/withdraw/approve/:id", action(StatusApproved, func(id, _ string) error {
		return service.Approve(id)
	}))
	r.Post("/withdraw/complete/:id", action(StatusCompleted, func(id, _ string) error {
		return service.Complete(id)
	}))
	r.Post("/withdraw/reject/:id", action(StatusRejected, service.Reject))
	r.Post("/withdraw/fail/:id", action(StatusFailed, service.Fail))
}
