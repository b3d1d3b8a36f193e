package handlers

import (
	"context"
	"log"
	"net/http"

	"floorplan-detect/internal/overlay"
	"floorplan-detect/internal/workspace"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Analyze Handlers
// ============================================================

// Detect: анализ без сессии: возвращает элементы и сводку.
func (h *Handler) Detect(c fiber.Ctx) error {
	log.Printf("[DETECT] Received request, Content-Length: %d", len(c.Body()))

	image, name, err := readUpload(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	result, err := h.analyzer.Analyze(ctx, image)
	if err != nil {
		log.Printf("[DETECT] %s: analysis failed: %v", name, err)
		return writeError(c, err)
	}

	model := overlay.New(h.registry)
	model.Load(result.Elements)

	return c.JSON(fiber.Map{
		"elements": result.Elements,
		"summary":  model.Summary(),
		"width":    result.Width,
		"height":   result.Height,
		"degraded": result.Degraded,
	})
}

// Analyze загружает картинку в сессию. Новый анализ выбрасывает результат
// предыдущего, если тот ещё не завершился.
func (h *Handler) Analyze(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	image, name, err := readUpload(c)
	if err != nil {
		return writeError(c, err)
	}

	log.Printf("[DETECT] workspace %s: analyzing %s (%d bytes)", ws.ID, name, len(image))

	parent, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	ctx, ticket := ws.BeginAnalysis(parent)
	result, err := h.analyzer.Analyze(ctx, image)
	if err != nil {
		if !ws.FailAnalysis(ticket) {
			log.Printf("[DETECT] workspace %s: stale analysis failed: %v", ws.ID, err)
			return writeError(c, context.Canceled)
		}
		log.Printf("[DETECT] workspace %s: analysis failed: %v", ws.ID, err)
		return writeError(c, err)
	}

	applied := ws.CompleteAnalysis(ticket, workspace.Analysis{
		Image:     image,
		ImageName: name,
		Width:     result.Width,
		Height:    result.Height,
		Degraded:  result.Degraded,
		Elements:  result.Elements,
	})
	if !applied {
		log.Printf("[DETECT] workspace %s: discarding stale result", ws.ID)
		return writeError(c, context.Canceled)
	}

	return c.Status(http.StatusOK).JSON(ws.View())
}
