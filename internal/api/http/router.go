package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/http/handlers"
	"github.com/spec-kit/attendance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Employees      *handlers.EmployeesHandler
	Attendances    *handlers.AttendancesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Kiosk tokens may read and record
// attendance; every other write needs the admin role.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Banner)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	admin := cfg.AuthMiddleware.RequireAdmin

	employees := api.Group("/employees")
	employees.Get("", cfg.Employees.List)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Post("", admin, cfg.Employees.Create)
	employees.Put("/:id", admin, cfg.Employees.Update)
	employees.Delete("/:id", admin, cfg.Employees.Delete)

	attendances := api.Group("/attendances")
	attendances.Get("", cfg.Attendances.List)
	attendances.Get("/employee/:employeeId", cfg.Attendances.ListForEmployee)
	attendances.Get("/:id", cfg.Attendances.Get)
	attendances.Post("", cfg.Attendances.Create)
	attendances.Put("/:id", admin, cfg.Attendances.Update)
	attendances.Delete("/:id", admin, cfg.Attendances.Delete)

	app.Use(notFound)
}
