package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// ============================================================
// Logger Middleware
// ============================================================

// RequestID помечает каждый запрос заголовком X-Request-ID; gateway
// пробрасывает его в детектор, так что строки логов обоих сервисов связаны.
func RequestID() fiber.Handler {
	return requestid.New()
}

// Logger возвращает настроенный middleware для логирования запросов
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | id: ${respHeader:X-Request-ID} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
