package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"floorplan-detect/internal/plan"
)

// RenderSVG собирает SVG оверлей в канонической сетке 1000x1000.
// preserveAspectRatio="none" растягивает его поверх картинки любого размера.
func (r *Renderer) RenderSVG(elements []plan.Element) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" preserveAspectRatio="none">`,
		plan.CanonicalSize, plan.CanonicalSize, plan.CanonicalSize, plan.CanonicalSize))
	builder.WriteString("\n")

	for _, el := range elements {
		builder.WriteString("  ")
		builder.WriteString(r.renderElement(el))
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String()
}

func (r *Renderer) renderElement(el plan.Element) string {
	b := el.Box
	return fmt.Sprintf(`<rect id="%s" data-category="%s" data-source="%s" x="%d" y="%d" width="%d" height="%d" fill="none" stroke="%s" stroke-width="%d" vector-effect="non-scaling-stroke"><title>%s</title></rect>`,
		escape(el.ID),
		escape(string(el.Category)),
		escape(string(el.Source)),
		b.XMin, b.YMin, b.Width(), b.Height(),
		r.registry.Color(el.Category),
		r.border,
		escape(el.Label),
	)
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
