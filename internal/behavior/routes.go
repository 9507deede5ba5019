package behavior

import "github.com/gofiber/fiber/v2"

func RegisterAdminRoutes(r fiber.Router, s *Service) {

	r.Get("/behavior/:uid", func(c *fiber.Ctx) error {
		uid, err := c.ParamsInt("uid")
		if err != nil {
			return c.SendStatus(400)
		}

		p, err := s.BuildProfile(int64(uid))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(p)
	})

	r.Delete("/behavior/cache/:uid", func(c *fiber.Ctx) error {
		uid, err := c.ParamsInt("uid")
		if err != nil {
			return c.SendStatus(400)
		}

		s.Invalidate(int64(uid))
		return c.JSON(fiber.Map{"status": "cleared"})
	})
}
