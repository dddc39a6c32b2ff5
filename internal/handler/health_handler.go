package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/config"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	AIProvider  string    `json:"ai_provider"`
}

// BannerResponse describes the service and the endpoints it exposes.
type BannerResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "healthy",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			AIProvider:  cfg.AIProvider,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// Banner returns a handler that lists the public endpoints.
func Banner(cfg config.Config) fiber.Handler {
	payload := BannerResponse{
		Message: cfg.AppName,
		Status:  "running",
		Endpoints: map[string]string{
			"websocket": "/ws/{session_id}",
			"health":    "/health",
			"session":   "/sessions/{session_id}",
			"history":   "/sessions/{session_id}/history",
			"metrics":   "/metrics",
		},
	}

	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service running", payload)
	}
}
