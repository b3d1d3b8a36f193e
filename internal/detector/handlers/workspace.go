package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"floorplan-detect/internal/export"
	"floorplan-detect/internal/overlay"
	"floorplan-detect/internal/plan"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Workspace Handlers
// ============================================================

type toolRequest struct {
	Tool     string `json:"tool"`
	Category string `json:"category"`
}

type addRequest struct {
	From     plan.Point `json:"from"`
	To       plan.Point `json:"to"`
	Category string     `json:"category"`
}

// Categories отдаёт реестр категорий с цветами.
func (h *Handler) Categories(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": h.registry.Specs()})
}

func (h *Handler) CreateWorkspace(c fiber.Ctx) error {
	ws := h.workspaces.Create()
	return c.Status(http.StatusCreated).JSON(ws.View())
}

func (h *Handler) GetWorkspace(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}
	return c.JSON(ws.View())
}

func (h *Handler) DeleteWorkspace(c fiber.Ctx) error {
	if !h.workspaces.Delete(c.Params("id")) {
		return workspaceNotFound(c)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetWorkspace возвращает сессию к состоянию до загрузки.
func (h *Handler) ResetWorkspace(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}
	ws.Reset()
	return c.JSON(ws.View())
}

func (h *Handler) Summary(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}
	v := ws.View()
	return c.JSON(fiber.Map{
		"summary": v.Summary,
		"legend":  v.Legend,
	})
}

// SelectTool: {"tool": "add"|"remove"|"none", "category": "window"}.
// Повторный выбор активного инструмента его выключает.
func (h *Handler) SelectTool(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	var req toolRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var category plan.Category
	if req.Category != "" {
		parsed, ok := h.registry.ParseCategory(req.Category)
		if !ok || parsed == plan.Unknown {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
		}
		category = parsed
	}

	var apply func(m *overlay.Model)
	switch strings.ToLower(req.Tool) {
	case "add":
		apply = func(m *overlay.Model) { m.BeginAdd(category) }
	case "remove":
		apply = func(m *overlay.Model) { m.BeginRemove() }
	case "none", "":
		apply = func(m *overlay.Model) { m.ExitEdit() }
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "tool must be add, remove or none"})
	}

	return c.JSON(ws.Update(apply))
}

// ToggleVisibility переключает слой категории.
func (h *Handler) ToggleVisibility(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	category, ok := h.registry.ParseCategory(c.Params("category"))
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
	}

	return c.JSON(ws.Update(func(m *overlay.Model) {
		m.ToggleVisibility(category)
	}))
}

// AddElement завершает перетаскивание. Слишком маленький прямоугольник
// молча отбрасывается: в ответе текущее состояние и added=false.
func (h *Handler) AddElement(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	var req addRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	// пустая категория: берётся категория активного инструмента
	var category plan.Category
	if req.Category != "" {
		parsed, ok := h.registry.ParseCategory(req.Category)
		if !ok || parsed == plan.Unknown {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
		}
		category = parsed
	}

	var (
		added   plan.Element
		applied bool
	)
	view := ws.Update(func(m *overlay.Model) {
		added, applied = m.CommitAdd(req.From, req.To, category)
	})

	body := fiber.Map{"added": applied, "workspace": view}
	if applied {
		body["element"] = added
	}
	return c.JSON(body)
}

// RemoveElement удаляет элемент по id; отсутствующий id не ошибка.
func (h *Handler) RemoveElement(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	id := c.Params("elementId")
	var removed bool
	view := ws.Update(func(m *overlay.Model) {
		removed = m.RemoveElement(id)
	})

	return c.JSON(fiber.Map{"removed": removed, "workspace": view})
}

// RemoveAt удаляет верхний видимый элемент под точкой клика.
func (h *Handler) RemoveAt(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	var p plan.Point
	if err := json.Unmarshal(c.Body(), &p); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var (
		el      plan.Element
		removed bool
	)
	view := ws.Update(func(m *overlay.Model) {
		el, removed = m.RemoveAt(p)
	})

	body := fiber.Map{"removed": removed, "workspace": view}
	if removed {
		body["element"] = el
	}
	return c.JSON(body)
}

// ============================================================
// Export
// ============================================================

// ExportPNG отдаёт снимок текущего вида: картинка + видимые рамки.
func (h *Handler) ExportPNG(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	image, name, elements := ws.Snapshot()
	if len(image) == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": export.ErrNoImage.Error()})
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderPNG(&buf, image, elements); err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(name)))
	return c.Send(buf.Bytes())
}

// ExportSVG отдаёт оверлей видимых элементов в сетке 1000x1000.
func (h *Handler) ExportSVG(c fiber.Ctx) error {
	ws, ok := h.workspaces.Get(c.Params("id"))
	if !ok {
		return workspaceNotFound(c)
	}

	_, _, elements := ws.Snapshot()
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(h.renderer.RenderSVG(elements))
}

func workspaceNotFound(c fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "workspace not found"})
}

// exportFilename: plan.jpg -> plan_analyzed.png
func exportFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" {
		return export.DefaultFilename
	}
	return base + "_analyzed.png"
}
