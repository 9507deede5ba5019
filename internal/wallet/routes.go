package wallet

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, service *Service) {

	r.Get("/wallet/balance/:uid", func(c *fiber.Ctx) error {
		uid, err := c.ParamsInt("uid")
		if err != nil {
			return c.SendStatus(400)
		}

		b, err := service.Balance(int64(uid))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(fiber.Map{"balance": b})
	})
}
