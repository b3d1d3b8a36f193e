package plan

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// Canonical coordinate space
// ============================================================

const (
	// CanonicalSize: сторона канонической сетки 0..1000, не зависит от разрешения картинки.
	CanonicalSize = 1000
	// MinManualSize: минимальный размер ручного прямоугольника по каждой оси.
	MinManualSize = 10
)

// Point: точка в канонических координатах.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box: прямоугольник [ymin, xmin, ymax, xmax] в канонических координатах.
type Box struct {
	YMin int
	XMin int
	YMax int
	XMax int
}

// Rect: процентный прямоугольник для CSS.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Clamp ограничивает значение диапазоном [0, CanonicalSize].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > CanonicalSize {
		return CanonicalSize
	}
	return v
}

// NewBox собирает бокс из произвольных значений: упорядочивает и обрезает по сетке.
func NewBox(ymin, xmin, ymax, xmax int) Box {
	ymin, ymax = Clamp(ymin), Clamp(ymax)
	xmin, xmax = Clamp(xmin), Clamp(xmax)
	if ymin > ymax {
		ymin, ymax = ymax, ymin
	}
	if xmin > xmax {
		xmin, xmax = xmax, xmin
	}
	return Box{YMin: ymin, XMin: xmin, YMax: ymax, XMax: xmax}
}

// BoxFromCorners: минимальный прямоугольник по двум углам перетаскивания.
func BoxFromCorners(a, b Point) Box {
	return NewBox(a.Y, a.X, b.Y, b.X)
}

func (b Box) Width() int  { return b.XMax - b.XMin }
func (b Box) Height() int { return b.YMax - b.YMin }

// Contains проверяет попадание точки (границы включительно).
func (b Box) Contains(p Point) bool {
	return p.X >= b.XMin && p.X <= b.XMax && p.Y >= b.YMin && p.Y <= b.YMax
}

// Percent переводит бокс в проценты от размеров картинки.
func (b Box) Percent() Rect {
	return Rect{
		Top:    float64(b.YMin) / 10,
		Left:   float64(b.XMin) / 10,
		Height: float64(b.YMax-b.YMin) / 10,
		Width:  float64(b.XMax-b.XMin) / 10,
	}
}

// Pixels масштабирует бокс под картинку width x height: x0, y0, x1, y1.
func (b Box) Pixels(width, height int) (int, int, int, int) {
	return b.XMin * width / CanonicalSize,
		b.YMin * height / CanonicalSize,
		b.XMax * width / CanonicalSize,
		b.YMax * height / CanonicalSize
}

// ============================================================
// JSON: box_2d = [ymin, xmin, ymax, xmax]
// ============================================================

func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.YMin, b.XMin, b.YMax, b.XMax})
}

func (b *Box) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("box_2d: expected 4 values, got %d", len(raw))
	}
	*b = NewBox(raw[0], raw[1], raw[2], raw[3])
	return nil
}
