package server

import (
	"context"

	"littlesteps-be/internal/bootstrap"
	"littlesteps-be/internal/config"
	"littlesteps-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("HTTP", "Server listening", map[string]interface{}{
		"addr": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// registerRoutes hands every controller the access guard. Controllers attach
// it per route so the guard sees the full route pattern.
func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	guard := c.Guard.Handler()

	c.HealthController.RegisterRoutes(app, guard)

	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api, guard)
	c.OAuthController.RegisterRoutes(api, guard)
	c.UserController.RegisterRoutes(api, guard)
	c.ChatController.RegisterRoutes(api, guard)
	c.AdminController.RegisterRoutes(api, guard)

	app.Use(c.Guard.DenyUnmatched())
}
