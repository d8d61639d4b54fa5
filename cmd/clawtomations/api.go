package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/clawtomations/pkg/services"
	"github.com/dukex/clawtomations/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger *slog.Logger
	runs   *services.Runs
}

func NewAPI(logger *slog.Logger, runs *services.Runs) *API {
	return &API{
		logger: logger,
		runs:   runs,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.runs)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", handlers.Index)
	app.Get("/health", handlers.HealthCheck)
	app.Post("/run", handlers.RunWorkflow)

	r := app.Group("/runs")
	r.Get("/", handlers.GetRuns)
	r.Post("/", handlers.StartRun)
	r.Get("/:id", handlers.GetRun)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Control panel listening", "url", "http://localhost:"+strconv.Itoa(port))

	return app.Listen(":" + strconv.Itoa(port))
}
