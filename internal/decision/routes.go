package decision

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"wager-platform/internal/audit"
	"wager-platform/internal/event"
)

func RegisterAdminRoutes(r fiber.Router, store *ConfigStore, evaluator *Evaluator, auditLog *audit.Service, bus *event.Bus) {

	r.Get("/decision-config", func(c *fiber.Ctx) error {
		return c.JSON(store.Current())
	})

	r.Patch("/decision-config", func(c *fiber.Ctx) error {
		var patch Patch
		if err := c.BodyParser(&patch); err != nil {
			return c.SendStatus(400)
		}

		cfg, err := store.Apply(patch)
		if err != nil {
			if errors.Is(err, ErrInvalidConfig) {
				return c.Status(422).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		auditLog.Log(0, "decision_config_update", fmt.Sprintf("%+v", cfg))
		bus.Publish(event.EventConfigUpdated, cfg)

		return c.JSON(cfg)
	})

	// Full gate report for one user, for support diagnostics.
	r.Get("/gates/:uid", func(c *fiber.Ctx) error {
		uid, err := c.ParamsInt("uid")
		if err != nil {
			return c.SendStatus(400)
		}
		proposed := c.QueryFloat("proposed", 0)

		report, err := evaluator.CheckAll(int64(uid), store.Current(), proposed)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report)
	})
}
