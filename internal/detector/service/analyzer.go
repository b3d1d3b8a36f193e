package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"floorplan-detect/internal/detector/normalizer"
)

// ErrNoFileProvided: анализ запрошен без картинки.
var ErrNoFileProvided = errors.New("no file provided")

// Detector: внешний сервис инференса.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]byte, error)
}

// ============================================================
// Analyzer
// ============================================================

type Analyzer struct {
	detector   Detector
	normalizer *normalizer.Normalizer
}

func NewAnalyzer(detector Detector, n *normalizer.Normalizer) *Analyzer {
	return &Analyzer{
		detector:   detector,
		normalizer: n,
	}
}

// Analyze: картинка -> инференс -> канонические элементы. Частичных результатов нет.
func (a *Analyzer) Analyze(ctx context.Context, image []byte) (*normalizer.Result, error) {
	if len(image) == 0 {
		return nil, ErrNoFileProvided
	}

	raw, err := a.detector.Detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	result, err := a.normalizer.Normalize(ctx, raw, image)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	log.Printf("[DETECT] %d elements, image %dx%d, degraded=%v", len(result.Elements), result.Width, result.Height, result.Degraded)
	return result, nil
}
