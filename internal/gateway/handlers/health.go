package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe готов, когда детектор отвечает на свой /health/ready.
func ReadinessProbe(detectorURL string) fiber.Handler {
	client := &http.Client{Timeout: 2 * time.Second}
	target := strings.TrimRight(detectorURL, "/") + "/health/ready"

	return func(c fiber.Ctx) error {
		resp, err := client.Get(target)
		if err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "not ready",
				"detector": "unreachable",
			})
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "not ready",
				"detector": resp.Status,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
