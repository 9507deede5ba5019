package app

import (
	"context"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wager-platform/internal/audit"
	"wager-platform/internal/behavior"
	"wager-platform/internal/config"
	"wager-platform/internal/db"
	"wager-platform/internal/decision"
	"wager-platform/internal/event"
	"wager-platform/internal/jobs"
	"wager-platform/internal/ledger"
	"wager-platform/internal/logger"
	"wager-platform/internal/monitoring"
	"wager-platform/internal/security"
	"wager-platform/internal/wager"
	"wager-platform/internal/wallet"
	"wager-platform/internal/withdraw"
	"wager-platform/internal/ws"
)

type Server struct {
	app  *fiber.App
	cfg  *config.Config
	jobs *jobs.Manager
	log  *zap.Logger
}

func NewServer() (*Server, error) {
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel)

	database, err := db.Init(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	monitoring.Init()
	bus := event.NewBus()
	auditLog := audit.New(database, log)

	walletService := wallet.New(database)
	ledgerService := ledger.New(database, ledger.PoolDefaults{
		StartingBalance:  cfg.PoolStartingBalance,
		ContributionRate: cfg.ContributionRate,
		MinimumBalance:   cfg.MinimumPoolBalance,
		MaximumPayout:    cfg.MaximumPayout,
	}, log)
	behaviorService := behavior.New(database, walletService, log)

	configStore, err := decision.NewConfigStore(decision.DefaultConfig())
	if err != nil {
		return nil, err
	}
	evaluator := decision.NewEvaluator(database)
	engine := decision.NewEngine(configStore, evaluator, log)

	wagerService := wager.New(database, walletService, ledgerService,
		behaviorService, engine, bus, log)
	withdrawService := withdraw.New(database, walletService, auditLog, bus, log)

	hub := ws.NewHub()
	leaderboard := wager.NewLeaderboard()
	wager.RegisterConsumers(bus, auditLog, leaderboard, hub)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(hub.Handler))

	api := app.Group("/api", security.APIKeyGuard())
	wallet.RegisterRoutes(api, walletService)
	wager.RegisterRoutes(api, wagerService, leaderboard)
	withdraw.RegisterRoutes(api, withdrawService)

	admin := app.Group("/admin", security.AdminGuard())
	ledger.RegisterAdminRoutes(admin, ledgerService, auditLog, bus)
	behavior.RegisterAdminRoutes(admin, behaviorService)
	decision.RegisterAdminRoutes(admin, configStore, evaluator, auditLog, bus)
	withdraw.RegisterAdminRoutes(admin, withdrawService)

	manager := jobs.New()
	manager.Register(&jobs.SeedRotation{
		Seeds:    wagerService.Seeds(),
		Interval: time.Hour,
	})
	manager.Register(&jobs.PoolHealthWatch{
		Ledger:   ledgerService,
		Interval: time.Minute,
		Log:      log,
	})
	manager.Register(&jobs.CacheSweep{
		Store:    behaviorService.Cache(),
		Interval: 5 * time.Minute,
	})

	return &Server{app: app, cfg: cfg, jobs: manager, log: log}, nil
}

func (s *Server) Start(ctx context.Context) error {
	go s.jobs.Start(ctx)

	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()

	s.log.Info("listening", zap.String("port", s.cfg.Port))
	return s.app.Listen(":" + s.cfg.Port)
}
