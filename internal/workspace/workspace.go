package workspace

import (
	"context"
	"sync"
	"time"

	"floorplan-detect/internal/overlay"
	"floorplan-detect/internal/plan"
)

// ============================================================
// Workspace
// ============================================================

// Ticket идентифицирует запущенный анализ. Результат применяется, только
// если тикет всё ещё текущий.
type Ticket uint64

// Analysis: успешный результат анализа для загрузки в оверлей.
type Analysis struct {
	Image     []byte
	ImageName string
	Width     int
	Height    int
	Degraded  bool
	Elements  []plan.Element
}

// Workspace: одна логическая сессия: оверлей, исходная картинка и
// единственный активный анализ.
type Workspace struct {
	ID string

	mu         sync.Mutex
	model      *overlay.Model
	image      []byte
	imageName  string
	width      int
	height     int
	degraded   bool
	generation Ticket
	cancel     context.CancelFunc
	processing bool
	lastSeen   time.Time
}

func newWorkspace(id string, registry *plan.Registry, now time.Time) *Workspace {
	return &Workspace{
		ID:       id,
		model:    overlay.New(registry),
		lastSeen: now,
	}
}

// BeginAnalysis отменяет предыдущий анализ (если он ещё идёт), сбрасывает
// оверлей и выдаёт контекст и тикет нового.
func (w *Workspace) BeginAnalysis(parent context.Context) (context.Context, Ticket) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	w.generation++
	w.cancel = cancel
	w.processing = true
	w.clearLocked()

	return ctx, w.generation
}

// CompleteAnalysis загружает результат. false: тикет устарел, результат выброшен.
func (w *Workspace) CompleteAnalysis(t Ticket, a Analysis) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t != w.generation || !w.processing {
		return false
	}

	w.finishLocked()
	w.image = a.Image
	w.imageName = a.ImageName
	w.width = a.Width
	w.height = a.Height
	w.degraded = a.Degraded
	w.model.Load(a.Elements)
	return true
}

// FailAnalysis возвращает сессию в состояние до загрузки.
func (w *Workspace) FailAnalysis(t Ticket) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t != w.generation || !w.processing {
		return false
	}

	w.finishLocked()
	w.clearLocked()
	return true
}

// Reset отменяет идущий анализ и очищает сессию.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.processing {
		w.generation++
	}
	w.finishLocked()
	w.clearLocked()
}

func (w *Workspace) Processing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processing
}

// Update выполняет правку оверлея под блокировкой и возвращает новое состояние.
func (w *Workspace) Update(fn func(m *overlay.Model)) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	fn(w.model)
	return w.viewLocked()
}

func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// Snapshot: картинка и видимые элементы для экспорта.
func (w *Workspace) Snapshot() ([]byte, string, []plan.Element) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.image, w.imageName, w.model.VisibleElements()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing {
		return 0
	}
	return now.Sub(w.lastSeen)
}

func (w *Workspace) finishLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.processing = false
}

func (w *Workspace) clearLocked() {
	w.image = nil
	w.imageName = ""
	w.width, w.height = 0, 0
	w.degraded = false
	w.model.Reset()
}

// ============================================================
// View
// ============================================================

// ElementView: элемент с CSS прямоугольником и флагом видимости.
type ElementView struct {
	plan.Element
	Style   plan.Rect `json:"style"`
	Visible bool      `json:"visible"`
}

// View: всё, что нужно клиенту для отрисовки кадра.
type View struct {
	ID          string                 `json:"id"`
	Mode        overlay.Mode           `json:"mode"`
	Processing  bool                   `json:"processing"`
	AddCategory plan.Category          `json:"add_category"`
	ImageName   string                 `json:"image_name,omitempty"`
	Width       int                    `json:"width"`
	Height      int                    `json:"height"`
	Degraded    bool                   `json:"degraded"`
	Elements    []ElementView          `json:"elements"`
	Visibility  map[plan.Category]bool `json:"visibility"`
	Summary     map[plan.Category]int  `json:"summary"`
	Legend      []overlay.LegendEntry  `json:"legend"`
}

func (w *Workspace) viewLocked() View {
	elements := w.model.Elements()
	views := make([]ElementView, 0, len(elements))
	for _, el := range elements {
		views = append(views, ElementView{
			Element: el,
			Style:   el.Box.Percent(),
			Visible: w.model.Visible(el.Category),
		})
	}

	return View{
		ID:          w.ID,
		Mode:        w.model.Mode(),
		Processing:  w.processing,
		AddCategory: w.model.AddCategory(),
		ImageName:   w.imageName,
		Width:       w.width,
		Height:      w.height,
		Degraded:    w.degraded,
		Elements:    views,
		Visibility:  w.model.Visibility(),
		Summary:     w.model.Summary(),
		Legend:      w.model.Legend(),
	}
}
