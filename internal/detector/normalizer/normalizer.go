package normalizer

import (
	"context"
	"log"
	"math"

	"floorplan-detect/internal/plan"
)

// ============================================================
// Normalizer
// ============================================================

// Result: элементы в канонических координатах и размеры, по которым
// они посчитаны. Degraded означает, что хотя бы одна ось масштабировалась
// по сетке 1000 вместо реального размера картинки.
type Result struct {
	Elements []plan.Element `json:"elements"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Degraded bool           `json:"degraded"`
}

type Normalizer struct {
	registry *plan.Registry
	probe    DimensionProbe
}

func New(registry *plan.Registry, probe DimensionProbe) *Normalizer {
	if probe == nil {
		probe = ImageProbe{}
	}
	return &Normalizer{registry: registry, probe: probe}
}

// Normalize разбирает ответ модели, при необходимости достаёт размеры из
// исходной картинки и переводит детекции в канонические боксы.
//
// Ошибка возвращается только для кривого ответа (ErrMalformedDetectionResult)
// или отменённого ctx; недоступные размеры дают Degraded результат.
func (n *Normalizer) Normalize(ctx context.Context, raw, source []byte) (*Result, error) {
	payload, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}

	var width, height int
	if payload.Image != nil {
		width, height = payload.Image.Width, payload.Image.Height
	}

	if width <= 0 || height <= 0 {
		w, h, err := n.probeDimensions(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[NORMALIZE] image dimensions unavailable: %v", err)
		} else {
			width, height = w, h
		}
	}

	elements, degraded := n.NormalizePredictions(payload.Predictions, width, height)
	if degraded {
		log.Printf("[NORMALIZE] degraded result: scaling %d predictions against %dx%d", len(elements), width, height)
	}

	return &Result{
		Elements: elements,
		Width:    width,
		Height:   height,
		Degraded: degraded,
	}, nil
}

// probeDimensions декодирует заголовок в отдельной горутине; если ctx
// отменён раньше, результат выбрасывается.
func (n *Normalizer) probeDimensions(ctx context.Context, source []byte) (int, int, error) {
	type dims struct {
		w, h int
		err  error
	}

	done := make(chan dims, 1)
	go func() {
		w, h, err := n.probe.Dimensions(source)
		done <- dims{w: w, h: h, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case d := <-done:
		return d.w, d.h, d.err
	}
}

// NormalizePredictions выполняет синхронную фазу: центр/размер -> углы -> 0..1000.
// Нулевая сторона картинки заменяется на 1000, второй результат сообщает об этом.
func (n *Normalizer) NormalizePredictions(preds []Prediction, width, height int) ([]plan.Element, bool) {
	degraded := false
	if width <= 0 {
		width = plan.CanonicalSize
		degraded = true
	}
	if height <= 0 {
		height = plan.CanonicalSize
		degraded = true
	}

	elements := make([]plan.Element, 0, len(preds))
	for i, p := range preds {
		xMin := p.X - p.Width/2
		yMin := p.Y - p.Height/2
		xMax := p.X + p.Width/2
		yMax := p.Y + p.Height/2

		category := n.registry.Resolve(p.Class)

		elements = append(elements, plan.Element{
			ID:         plan.DetectionID(i),
			Category:   category,
			Class:      p.Class,
			Label:      plan.DetectionLabel(p.Class, roundHalfUp(p.Confidence*100)),
			Box:        plan.NewBox(scale(yMin, height), scale(xMin, width), scale(yMax, height), scale(xMax, width)),
			Source:     plan.SourceDetection,
			Confidence: p.Confidence,
		})
	}

	return elements, degraded
}

// scale переводит пиксели в сетку 1000x1000. Ограничение делается до
// перевода в int: огромные значения иначе переполняются.
func scale(v float64, dimension int) int {
	s := v / float64(dimension) * plan.CanonicalSize
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > plan.CanonicalSize {
		return plan.CanonicalSize
	}
	return roundHalfUp(s)
}

// roundHalfUp округляет .5 вверх, как это делает браузерный клиент.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
