package controller

import (
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type IHealthController interface {
	RegisterRoutes(app fiber.Router, guard fiber.Handler)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	metrics *metrics.Metrics
}

func NewHealthController(m *metrics.Metrics) IHealthController {
	return &healthController{metrics: m}
}

// RegisterRoutes takes the app root; /metrics lives outside /api.
func (c *healthController) RegisterRoutes(app fiber.Router, guard fiber.Handler) {
	app.Get("/api/health", guard, c.Health)
	app.Get("/metrics", guard, adaptor.HTTPHandler(c.metrics.Handler()))
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{"status": "up"}))
}
