package server

import (
	"github.com/fathima-sithara/account-service/internal/config"
	"github.com/fathima-sithara/account-service/internal/handlers"
	"github.com/fathima-sithara/account-service/internal/middleware"
	"github.com/fathima-sithara/account-service/internal/routes"
	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

// New initializes the Fiber application with config, middlewares, and routes.
func New(cfg *config.Config, h *handlers.Handler, tokens *token.Manager, logger *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	})

	// Cookies cross origins, so origins are an explicit allow-list and
	// credentials are opted into per config, not a process-wide default.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(logger))

	routes.Setup(app, h, tokens)

	return app
}
