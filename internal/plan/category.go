package plan

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ============================================================
// Categories
// ============================================================

type Category string

const (
	Perimeter Category = "perimeter"
	Bathroom  Category = "bathroom"
	Window    Category = "window"
	Door      Category = "door"
	Stairs    Category = "stairs"
	Furniture Category = "furniture"

	// Unknown: класс модели, не совпавший ни с одной категорией реестра.
	Unknown Category = "unknown"
)

const unknownColor = "#000000"

// CategorySpec описывает категорию: цвет отрисовки, видимость по умолчанию и
// альтернативные имена классов, которые может вернуть модель.
type CategorySpec struct {
	Name    Category `json:"name"`
	Color   string   `json:"color"`
	Visible bool     `json:"visible"`
	Aliases []string `json:"aliases,omitempty"`
}

// Registry: единый список категорий для нормализатора, оверлея и экспорта.
type Registry struct {
	specs   []CategorySpec
	colors  map[Category]colorful.Color
	index   map[Category]int
	aliases map[string]Category
}

// DefaultSpecs: палитра просмотрщика.
func DefaultSpecs() []CategorySpec {
	return []CategorySpec{
		{Name: Perimeter, Color: "#4a90e2", Visible: true, Aliases: []string{"perimeters", "outline"}},
		{Name: Bathroom, Color: "#e24a8d", Visible: true, Aliases: []string{"bathrooms", "bath", "toilet", "wc", "restroom"}},
		{Name: Window, Color: "#50e3c2", Visible: true, Aliases: []string{"windows"}},
		{Name: Door, Color: "#f5a623", Visible: true, Aliases: []string{"doors"}},
		{Name: Stairs, Color: "#9b59b6", Visible: true, Aliases: []string{"stair", "staircase", "stairway"}},
		{Name: Furniture, Color: "#95a5a6", Visible: true},
	}
}

// NewRegistry проверяет спецификации и строит индекс алиасов.
func NewRegistry(specs []CategorySpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("registry: no categories")
	}

	r := &Registry{
		colors:  make(map[Category]colorful.Color),
		index:   make(map[Category]int),
		aliases: make(map[string]Category),
	}

	for _, spec := range specs {
		name := Category(classKey(string(spec.Name)))
		if name == "" || name == Unknown {
			return nil, fmt.Errorf("registry: invalid category name %q", spec.Name)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("registry: duplicate category %q", name)
		}

		c, err := colorful.Hex(spec.Color)
		if err != nil {
			return nil, fmt.Errorf("registry: category %q: %w", name, err)
		}

		spec.Name = name
		r.index[name] = len(r.specs)
		r.specs = append(r.specs, spec)
		r.colors[name] = c
		r.aliases[string(name)] = name
	}

	// Алиасы не перекрывают собственные имена категорий.
	for _, spec := range r.specs {
		for _, alias := range spec.Aliases {
			key := classKey(alias)
			if key == "" {
				continue
			}
			if existing, ok := r.aliases[key]; ok && existing != spec.Name {
				return nil, fmt.Errorf("registry: alias %q used by %q and %q", alias, existing, spec.Name)
			}
			r.aliases[key] = spec.Name
		}
	}

	unknown, _ := colorful.Hex(unknownColor)
	r.colors[Unknown] = unknown

	return r, nil
}

// DefaultRegistry возвращает реестр с палитрой по умолчанию.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return r
}

// Categories: категории реестра в порядке объявления (без Unknown).
func (r *Registry) Categories() []Category {
	out := make([]Category, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec.Name)
	}
	return out
}

// Specs возвращает копию спецификаций.
func (r *Registry) Specs() []CategorySpec {
	out := make([]CategorySpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Known сообщает, объявлена ли категория в реестре.
func (r *Registry) Known(c Category) bool {
	_, ok := r.index[c]
	return ok
}

// Resolve сопоставляет класс модели с категорией. Незнакомые классы
// возвращаются как Unknown, исходная строка остаётся у вызывающего.
func (r *Registry) Resolve(class string) Category {
	if c, ok := r.aliases[classKey(class)]; ok {
		return c
	}
	return Unknown
}

// ParseCategory разбирает имя категории из запроса.
func (r *Registry) ParseCategory(name string) (Category, bool) {
	c := Category(classKey(name))
	if c == Unknown || r.Known(c) {
		return c, true
	}
	return "", false
}

// Color: hex цвет категории.
func (r *Registry) Color(c Category) string {
	if i, ok := r.index[c]; ok {
		return r.specs[i].Color
	}
	return unknownColor
}

// RGBA: цвет категории для растровой отрисовки.
func (r *Registry) RGBA(c Category, alpha uint8) color.NRGBA {
	col, ok := r.colors[c]
	if !ok {
		col = r.colors[Unknown]
	}
	red, green, blue := col.RGB255()
	return color.NRGBA{R: red, G: green, B: blue, A: alpha}
}

// DefaultVisibility: начальная видимость для всех категорий, включая Unknown.
func (r *Registry) DefaultVisibility() map[Category]bool {
	out := make(map[Category]bool, len(r.specs)+1)
	for _, spec := range r.specs {
		out[spec.Name] = spec.Visible
	}
	out[Unknown] = true
	return out
}

// classKey: "Outer_Wall " -> "outer-wall"
func classKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
