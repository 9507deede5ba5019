package wager

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wager-platform/internal/wallet"
)

func RegisterRoutes(r fiber.Router, service *Service, lb *Leaderboard) {

	r.Post("/wager/play", func(c *fiber.Ctx) error {

		type Req struct {
			GameType   string  `json:"game_type"`
			BetAmount  float64 `json:"bet_amount"`
			ClientSeed string  `json:"client_seed"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}

		uid, _ := c.Locals("uid").(int64)
		isAdmin, _ := c.Locals("is_admin").(bool)

		result, err := service.Play(PlayRequest{
			UID:        uid,
			GameType:   body.GameType,
			Bet:        body.BetAmount,
			ClientSeed: body.ClientSeed,
			IsAdmin:    isAdmin,
		})
		if err != nil {
			status := 500
			switch {
			case errors.Is(err, ErrInvalidBet), errors.Is(err, ErrUnknownGame):
				status = 400
			case errors.Is(err, wallet.ErrInsufficientFunds):
				status = 402
			case errors.Is(err, wallet.ErrNotFound):
				status = 404
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(result)
	})

	r.Get("/wager/games", func(c *fiber.Ctx) error {
		return c.JSON(ListGames())
	})

	r.Get("/wager/leaderboard", func(c *fiber.Ctx) error {
		n := c.QueryInt("limit", 10)
		return c.JSON(fiber.Map{"leaderboard": lb.Top(n)})
	})

	r.Get("/wager/seed-hash", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"server_seed_hash": service.Seeds().PublicHash()})
	})
}
