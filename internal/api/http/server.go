package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/observability"
)

// ServerConfig collects everything NewServer needs.
type ServerConfig struct {
	AppName    string
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Middleware MiddlewareOptions
	Routes     RouteConfig
}

// NewServer builds the Fiber application with middleware and routes installed.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(cfg.Logger, cfg.Metrics, cfg.Middleware.ExposeErrorDetail),
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.Middleware)
	RegisterRoutes(app, cfg.Routes)
	return app
}
