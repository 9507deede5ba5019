package ledger

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"wager-platform/internal/audit"
	"wager-platform/internal/event"
	"wager-platform/internal/monitoring"
)

func RegisterAdminRoutes(r fiber.Router, s *Service, auditLog *audit.Service, bus *event.Bus) {

	r.Get("/pool/health", func(c *fiber.Ctx) error {
		name := c.Query("pool", MainPool)

		pool, err := s.GetOrCreate(name)
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"pool":                pool.Name,
			"balance":             pool.CurrentBalance,
			"total_contributions": pool.TotalContributions,
			"total_payouts":       pool.TotalPayouts,
			"net_balance":         pool.NetBalance(),
			"health":              Health(pool),
			"status":              pool.Status,
		})
	})

	r.Get("/pool/stats", func(c *fiber.Ctx) error {
		pools, err := s.Stats()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"pools": pools})
	})

	r.Post("/pool/adjust", func(c *fiber.Ctx) error {
		type Req struct {
			Pool    string  `json:"pool"`
			Delta   float64 `json:"delta"`
			Reason  string  `json:"reason"`
			AdminID int64   `json:"admin_id"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		if body.Pool == "" {
			body.Pool = MainPool
		}
		if body.Reason == "" {
			return c.Status(400).JSON(fiber.Map{"error": "reason is required"})
		}

		pool, err := s.Adjust(body.Pool, body.Delta, body.Reason)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		auditLog.Log(body.AdminID, "pool_adjustment",
			fmt.Sprintf(`{"pool":%q,"delta":%.2f,"reason":%q}`, body.Pool, body.Delta, body.Reason))
		monitoring.PoolBalance.WithLabelValues(pool.Name).Set(pool.CurrentBalance)
		bus.Publish(event.EventPoolAdjusted, pool)

		return c.JSON(pool)
	})
}
