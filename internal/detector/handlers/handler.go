package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"floorplan-detect/internal/detector/inference"
	"floorplan-detect/internal/detector/normalizer"
	"floorplan-detect/internal/detector/service"
	"floorplan-detect/internal/export"
	"floorplan-detect/internal/plan"
	"floorplan-detect/internal/workspace"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Detector Handler
// ============================================================

type Handler struct {
	analyzer   *service.Analyzer
	workspaces *workspace.Manager
	registry   *plan.Registry
	renderer   *export.Renderer
	timeout    time.Duration
	ready      func() bool
}

type Options struct {
	Analyzer   *service.Analyzer
	Workspaces *workspace.Manager
	Registry   *plan.Registry
	Renderer   *export.Renderer
	// Timeout ограничивает один анализ (инференс + нормализация).
	Timeout time.Duration
	// Ready сообщает, настроен ли сервис инференса.
	Ready func() bool
}

func New(opts Options) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.Ready == nil {
		opts.Ready = func() bool { return true }
	}
	if opts.Renderer == nil {
		opts.Renderer = export.NewRenderer(opts.Registry)
	}
	return &Handler{
		analyzer:   opts.Analyzer,
		workspaces: opts.Workspaces,
		registry:   opts.Registry,
		renderer:   opts.Renderer,
		timeout:    opts.Timeout,
		ready:      opts.Ready,
	}
}

// Register вешает маршруты детектора на роутер.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/categories", h.Categories)
	r.Post("/detect", h.Detect)

	ws := r.Group("/workspaces")
	ws.Post("/", h.CreateWorkspace)
	ws.Get("/:id", h.GetWorkspace)
	ws.Delete("/:id", h.DeleteWorkspace)
	ws.Post("/:id/analyze", h.Analyze)
	ws.Post("/:id/reset", h.ResetWorkspace)
	ws.Get("/:id/summary", h.Summary)
	ws.Post("/:id/tool", h.SelectTool)
	ws.Post("/:id/visibility/:category", h.ToggleVisibility)
	ws.Post("/:id/elements", h.AddElement)
	ws.Delete("/:id/elements/:elementId", h.RemoveElement)
	ws.Post("/:id/remove-at", h.RemoveAt)
	ws.Get("/:id/export.png", h.ExportPNG)
	ws.Get("/:id/overlay.svg", h.ExportSVG)
}

// ============================================================
// Health
// ============================================================

func (h *Handler) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessProbe отвечает 503, пока не задан ключ сервиса инференса.
func (h *Handler) ReadinessProbe(c fiber.Ctx) error {
	if !h.ready() {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"error":  inference.ErrServiceConfiguration.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (h *Handler) StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}

// ============================================================
// Helpers
// ============================================================

// readUpload читает файл из multipart поля "file".
func readUpload(c fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", service.ErrNoFileProvided
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", service.ErrNoFileProvided
	}
	return data, fileHeader.Filename, nil
}

// writeError переводит ошибку анализа в одно сообщение для пользователя.
func writeError(c fiber.Ctx, err error) error {
	status, message := classify(err)

	body := fiber.Map{"error": message}
	var svcErr *inference.ServiceError
	if errors.As(err, &svcErr) && svcErr.Details != "" {
		body["details"] = svcErr.Details
	} else if errors.Is(err, normalizer.ErrMalformedDetectionResult) {
		body["details"] = err.Error()
	}

	return c.Status(status).JSON(body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoFileProvided):
		return http.StatusBadRequest, "No file provided"
	case errors.Is(err, inference.ErrServiceConfiguration):
		return http.StatusInternalServerError, "Inference service is not configured"
	case errors.Is(err, inference.ErrServiceAuth):
		return http.StatusUnauthorized, "Inference service rejected the API key"
	case errors.Is(err, inference.ErrServiceAccessDenied):
		return http.StatusForbidden, "Inference service denied access (check quota and model permissions)"
	case errors.Is(err, normalizer.ErrMalformedDetectionResult):
		return http.StatusBadGateway, "Inference service returned a malformed result"
	case errors.Is(err, inference.ErrServiceCallFailed):
		return http.StatusBadGateway, "Inference service call failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Analysis timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusConflict, "Analysis was superseded"
	default:
		log.Printf("[DETECT] unexpected error: %v", err)
		return http.StatusInternalServerError, "Analysis failed"
	}
}
