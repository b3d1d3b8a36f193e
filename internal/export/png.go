package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"floorplan-detect/internal/plan"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// ErrNoImage: в сессии нет картинки для экспорта.
var ErrNoImage = errors.New("no image loaded")

// DefaultFilename: имя файла при скачивании снимка.
const DefaultFilename = "floorplan_analyzed.png"

// ============================================================
// Renderer
// ============================================================

type Renderer struct {
	registry *plan.Registry
	border   int
	labels   bool
}

func NewRenderer(registry *plan.Registry) *Renderer {
	return &Renderer{
		registry: registry,
		border:   3,
		labels:   true,
	}
}

// RenderPNG рисует видимые элементы поверх исходной картинки и пишет PNG.
func (r *Renderer) RenderPNG(w io.Writer, src []byte, elements []plan.Element) error {
	if len(src) == 0 {
		return ErrNoImage
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	canvas := imaging.Clone(img)
	bounds := canvas.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	for _, el := range elements {
		x0, y0, x1, y1 := el.Box.Pixels(width, height)
		rect := image.Rect(x0, y0, x1, y1).Add(bounds.Min)
		col := r.registry.RGBA(el.Category, 255)

		r.strokeRect(canvas, rect, col)
		if r.labels {
			drawLabel(canvas, rect, string(el.Category), col)
		}
	}

	if err := imaging.Encode(w, canvas, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// strokeRect рисует рамку толщиной border внутрь прямоугольника.
func (r *Renderer) strokeRect(dst draw.Image, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	b := r.border
	if b > rect.Dx()/2 {
		b = max(rect.Dx()/2, 1)
	}
	if b > rect.Dy()/2 {
		b = max(rect.Dy()/2, 1)
	}

	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+b),
		image.Rect(rect.Min.X, rect.Max.Y-b, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+b, rect.Max.Y),
		image.Rect(rect.Max.X-b, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// drawLabel пишет имя категории на плашке цвета категории над рамкой
// (или внутри, если сверху нет места).
func drawLabel(dst draw.Image, rect image.Rectangle, text string, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.White), Face: face}

	pad := 2
	textW := d.MeasureString(text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	boxH := ascent + descent + pad*2

	top := rect.Min.Y - boxH
	if top < dst.Bounds().Min.Y {
		top = rect.Min.Y
	}

	plate := image.Rect(rect.Min.X, top, rect.Min.X+textW+pad*2, top+boxH).Intersect(dst.Bounds())
	if plate.Empty() {
		return
	}
	draw.Draw(dst, plate, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{X: fixed.I(rect.Min.X + pad), Y: fixed.I(top + pad + ascent)}
	d.DrawString(text)
}
