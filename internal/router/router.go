package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/config"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/handler"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InterviewHandler *handler.InterviewHandler
	// DisableMetrics skips the Prometheus scrape endpoint.
	DisableMetrics bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/", handler.Banner(cfg))
	app.Get("/health", handler.HealthCheck(cfg))

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterWebsocket(app.Group("/ws"))
		deps.InterviewHandler.RegisterSessions(app.Group("/sessions"))
	}
}
