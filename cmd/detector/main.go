package main

import (
	"fmt"
	"log"
	"time"

	"floorplan-detect/internal/common/config"
	"floorplan-detect/internal/common/middleware"
	"floorplan-detect/internal/detector/handlers"
	"floorplan-detect/internal/detector/inference"
	"floorplan-detect/internal/detector/normalizer"
	"floorplan-detect/internal/detector/service"
	"floorplan-detect/internal/export"
	"floorplan-detect/internal/plan"
	"floorplan-detect/internal/workspace"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Detector Service
// ============================================================

func main() {
	cfg := config.Load("3003")

	registry := plan.DefaultRegistry()

	client := inference.NewClient(inference.Config{
		BaseURL:    cfg.Inference.URL,
		APIKey:     cfg.Inference.APIKey,
		Model:      cfg.Inference.Model,
		Version:    cfg.Inference.Version,
		Confidence: cfg.Inference.Confidence,
		Timeout:    cfg.Inference.Deadline(),
	}, nil)
	if !client.Configured() {
		log.Printf("[INFERENCE] ROBOFLOW_API_KEY is not set, analysis requests will fail")
	}

	analyzer := service.NewAnalyzer(client, normalizer.New(registry, normalizer.ImageProbe{}))
	workspaces := workspace.NewManager(registry, cfg.WorkspaceIdle())

	h := handlers.New(handlers.Options{
		Analyzer:   analyzer,
		Workspaces: workspaces,
		Registry:   registry,
		Renderer:   export.NewRenderer(registry),
		Timeout:    cfg.Inference.Deadline() + 5*time.Second,
		Ready:      client.Configured,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Detector Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", h.LivenessProbe)
	app.Get("/health/ready", h.ReadinessProbe)
	app.Get("/health/startup", h.StartupProbe)

	// ============================================================
	// Detector Routes
	// ============================================================

	h.Register(app.Group("/api/v1"))

	// ============================================================
	// Workspace Sweeper
	// ============================================================

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			workspaces.Sweep()
		}
	}()

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Detector Service on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Inference model: %s/%s (confidence %d)", cfg.Inference.Model, cfg.Inference.Version, cfg.Inference.Confidence)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
