package overlay

import (
	"floorplan-detect/internal/plan"
)

// ============================================================
// Overlay Model
// ============================================================

type Mode string

const (
	ModeEmpty     Mode = "empty"
	ModePopulated Mode = "populated"
	ModeAdd       Mode = "add"
	ModeRemove    Mode = "remove"
)

// Model: рабочий набор элементов одной загруженной картинки и маска
// видимости по категориям. Не потокобезопасен: доступ сериализует владелец.
//
// Ни одна операция не возвращает ошибку: некорректный ввод обрезается или
// игнорируется.
type Model struct {
	registry    *plan.Registry
	mode        Mode
	elements    []plan.Element
	visibility  map[plan.Category]bool
	addCategory plan.Category
	manualSeq   int
}

// LegendEntry: строка панели сводки.
type LegendEntry struct {
	Category plan.Category `json:"category"`
	Color    string        `json:"color"`
	Count    int           `json:"count"`
	Visible  bool          `json:"visible"`
}

func New(registry *plan.Registry) *Model {
	m := &Model{registry: registry}
	m.Reset()
	return m
}

// Load: Empty -> Populated. Предыдущее состояние отбрасывается целиком.
func (m *Model) Load(elements []plan.Element) {
	m.mode = ModePopulated
	m.elements = make([]plan.Element, 0, len(elements))
	for _, el := range elements {
		el.Box = plan.NewBox(el.Box.YMin, el.Box.XMin, el.Box.YMax, el.Box.XMax)
		m.elements = append(m.elements, el)
	}
	m.visibility = m.registry.DefaultVisibility()
	m.addCategory = m.defaultAddCategory()
	m.manualSeq = 0
}

// Reset возвращает модель в Empty.
func (m *Model) Reset() {
	m.mode = ModeEmpty
	m.elements = nil
	m.visibility = m.registry.DefaultVisibility()
	m.addCategory = m.defaultAddCategory()
	m.manualSeq = 0
}

func (m *Model) Mode() Mode                 { return m.mode }
func (m *Model) AddCategory() plan.Category { return m.addCategory }
func (m *Model) Len() int                   { return len(m.elements) }

// Elements: копия элементов в порядке вставки (он же z-order).
func (m *Model) Elements() []plan.Element {
	out := make([]plan.Element, len(m.elements))
	copy(out, m.elements)
	return out
}

// VisibleElements: элементы видимых категорий, порядок сохраняется.
func (m *Model) VisibleElements() []plan.Element {
	out := make([]plan.Element, 0, len(m.elements))
	for _, el := range m.elements {
		if m.visibility[el.Category] {
			out = append(out, el)
		}
	}
	return out
}

func (m *Model) Visible(c plan.Category) bool { return m.visibility[c] }

// Visibility: копия маски видимости.
func (m *Model) Visibility() map[plan.Category]bool {
	out := make(map[plan.Category]bool, len(m.visibility))
	for c, v := range m.visibility {
		out[c] = v
	}
	return out
}

// ============================================================
// Visibility & tools
// ============================================================

// ToggleVisibility переключает видимость категории; элементы не трогает.
// Работает и для категорий без элементов. Незнакомые имена игнорируются.
func (m *Model) ToggleVisibility(c plan.Category) {
	if _, ok := m.visibility[c]; !ok {
		return
	}
	m.visibility[c] = !m.visibility[c]
}

// BeginAdd включает инструмент добавления. Повторный вызов с той же (или
// пустой) категорией выключает его; другая категория при активном Add лишь
// меняет тип добавляемых элементов.
func (m *Model) BeginAdd(c plan.Category) {
	if m.mode == ModeEmpty {
		return
	}
	if c != "" && !m.registry.Known(c) {
		return
	}

	if m.mode == ModeAdd && (c == "" || c == m.addCategory) {
		m.mode = ModePopulated
		return
	}

	if c != "" {
		m.addCategory = c
	}
	m.mode = ModeAdd
}

// BeginRemove включает инструмент удаления; повторный вызов выключает.
func (m *Model) BeginRemove() {
	switch m.mode {
	case ModeEmpty:
		return
	case ModeRemove:
		m.mode = ModePopulated
	default:
		m.mode = ModeRemove
	}
}

// ExitEdit выходит из любого инструмента в Populated.
func (m *Model) ExitEdit() {
	if m.mode == ModeAdd || m.mode == ModeRemove {
		m.mode = ModePopulated
	}
}

// ============================================================
// Edits
// ============================================================

// CommitAdd завершает перетаскивание: строит бокс по двум углам, обрезает по
// сетке и добавляет ручной элемент. Прямоугольник меньше MinManualSize по
// любой оси отбрасывается. Режим Add остаётся активным.
func (m *Model) CommitAdd(a, b plan.Point, c plan.Category) (plan.Element, bool) {
	if m.mode != ModeAdd {
		return plan.Element{}, false
	}
	if c == "" {
		c = m.addCategory
	}
	if !m.registry.Known(c) {
		return plan.Element{}, false
	}

	box := plan.BoxFromCorners(a, b)
	if box.Width() < plan.MinManualSize || box.Height() < plan.MinManualSize {
		return plan.Element{}, false
	}

	m.manualSeq++
	el := plan.Element{
		ID:       plan.ManualID(m.manualSeq),
		Category: c,
		Label:    plan.ManualLabel(c),
		Box:      box,
		Source:   plan.SourceManual,
	}
	m.elements = append(m.elements, el)
	return el, true
}

// RemoveElement удаляет элемент по id в режиме Remove. Отсутствующий id
// не ошибка, возвращается false.
func (m *Model) RemoveElement(id string) bool {
	if m.mode != ModeRemove {
		return false
	}
	for i, el := range m.elements {
		if el.ID == id {
			m.elements = append(m.elements[:i], m.elements[i+1:]...)
			return true
		}
	}
	return false
}

// ElementAt: верхний видимый элемент под точкой.
func (m *Model) ElementAt(p plan.Point) (plan.Element, bool) {
	for i := len(m.elements) - 1; i >= 0; i-- {
		el := m.elements[i]
		if m.visibility[el.Category] && el.Box.Contains(p) {
			return el, true
		}
	}
	return plan.Element{}, false
}

// RemoveAt удаляет верхний видимый элемент под точкой.
func (m *Model) RemoveAt(p plan.Point) (plan.Element, bool) {
	if m.mode != ModeRemove {
		return plan.Element{}, false
	}
	el, ok := m.ElementAt(p)
	if !ok {
		return plan.Element{}, false
	}
	return el, m.RemoveElement(el.ID)
}

// ============================================================
// Summary
// ============================================================

// Summary считает элементы по категориям. Все категории реестра присутствуют
// (в том числе с нулём), Unknown только если такие элементы есть.
func (m *Model) Summary() map[plan.Category]int {
	out := make(map[plan.Category]int, len(m.visibility))
	for _, c := range m.registry.Categories() {
		out[c] = 0
	}
	for _, el := range m.elements {
		out[el.Category]++
	}
	return out
}

// Legend: сводка в порядке реестра. Пустая и скрытая категория не выводится.
func (m *Model) Legend() []LegendEntry {
	summary := m.Summary()
	categories := m.registry.Categories()
	if summary[plan.Unknown] > 0 {
		categories = append(categories, plan.Unknown)
	}

	out := make([]LegendEntry, 0, len(categories))
	for _, c := range categories {
		count := summary[c]
		visible := m.visibility[c]
		if count == 0 && !visible {
			continue
		}
		out = append(out, LegendEntry{
			Category: c,
			Color:    m.registry.Color(c),
			Count:    count,
			Visible:  visible,
		})
	}
	return out
}

func (m *Model) defaultAddCategory() plan.Category {
	if m.registry.Known(plan.Window) {
		return plan.Window
	}
	return m.registry.Categories()[0]
}
