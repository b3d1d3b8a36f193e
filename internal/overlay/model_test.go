package overlay

import (
	"reflect"
	"strings"
	"testing"

	"floorplan-detect/internal/plan"
)

func seeded(t *testing.T) *Model {
	t.Helper()
	m := New(plan.DefaultRegistry())
	m.Load([]plan.Element{
		{ID: "pred-0", Category: plan.Door, Label: "door (87%)", Box: plan.Box{YMin: 80, XMin: 80, YMax: 120, XMax: 120}, Source: plan.SourceDetection},
		{ID: "pred-1", Category: plan.Window, Label: "window (60%)", Box: plan.Box{YMin: 0, XMin: 0, YMax: 50, XMax: 500}, Source: plan.SourceDetection},
		{ID: "pred-2", Category: plan.Door, Label: "door (41%)", Box: plan.Box{YMin: 500, XMin: 500, YMax: 600, XMax: 600}, Source: plan.SourceDetection},
	})
	return m
}

func TestNewModelIsEmpty(t *testing.T) {
	m := New(plan.DefaultRegistry())
	if m.Mode() != ModeEmpty {
		t.Fatalf("mode = %q, want empty", m.Mode())
	}

	m.BeginAdd(plan.Window)
	m.BeginRemove()
	if m.Mode() != ModeEmpty {
		t.Errorf("tools must not activate without an image, mode = %q", m.Mode())
	}
}

func TestLoadInitializesVisibility(t *testing.T) {
	m := seeded(t)
	if m.Mode() != ModePopulated {
		t.Fatalf("mode = %q, want populated", m.Mode())
	}
	for _, c := range plan.DefaultRegistry().Categories() {
		if !m.Visible(c) {
			t.Errorf("category %q should start visible", c)
		}
	}
}

func TestLoadReplacesPreviousState(t *testing.T) {
	m := seeded(t)
	m.ToggleVisibility(plan.Door)
	m.BeginAdd(plan.Window)
	m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 100, Y: 100}, "")

	m.Load([]plan.Element{{ID: "pred-0", Category: plan.Stairs}})

	if m.Len() != 1 {
		t.Errorf("len = %d, want 1", m.Len())
	}
	if !m.Visible(plan.Door) {
		t.Error("visibility must reset on load")
	}
	if m.Mode() != ModePopulated {
		t.Errorf("mode = %q, want populated", m.Mode())
	}
}

func TestToggleVisibility(t *testing.T) {
	m := seeded(t)
	before := m.Elements()

	m.ToggleVisibility(plan.Door)
	if m.Visible(plan.Door) {
		t.Error("door should be hidden after toggle")
	}
	if !reflect.DeepEqual(before, m.Elements()) {
		t.Error("toggle must not change elements")
	}
	if got := len(m.VisibleElements()); got != 1 {
		t.Errorf("visible elements = %d, want 1", got)
	}

	m.ToggleVisibility(plan.Door)
	if !m.Visible(plan.Door) {
		t.Error("double toggle should restore visibility")
	}
}

func TestToggleVisibilityEmptyCategory(t *testing.T) {
	m := seeded(t)
	m.ToggleVisibility(plan.Stairs)
	if m.Visible(plan.Stairs) {
		t.Fatal("zero-count category should still toggle")
	}

	m.BeginAdd(plan.Stairs)
	m.CommitAdd(plan.Point{X: 100, Y: 100}, plan.Point{X: 200, Y: 200}, plan.Stairs)
	for _, el := range m.VisibleElements() {
		if el.Category == plan.Stairs {
			t.Error("new element of a hidden category must not be visible")
		}
	}
}

func TestToggleVisibilityUnknownName(t *testing.T) {
	m := seeded(t)
	before := m.Visibility()
	m.ToggleVisibility("garage")
	if !reflect.DeepEqual(before, m.Visibility()) {
		t.Error("unregistered category must be ignored")
	}
}

func TestToolToggling(t *testing.T) {
	m := seeded(t)

	m.BeginAdd(plan.Window)
	if m.Mode() != ModeAdd {
		t.Fatalf("mode = %q, want add", m.Mode())
	}

	m.BeginAdd(plan.Door)
	if m.Mode() != ModeAdd || m.AddCategory() != plan.Door {
		t.Errorf("switching category: mode = %q, category = %q", m.Mode(), m.AddCategory())
	}

	m.BeginAdd(plan.Door)
	if m.Mode() != ModePopulated {
		t.Errorf("re-invoking add should exit, mode = %q", m.Mode())
	}

	m.BeginRemove()
	if m.Mode() != ModeRemove {
		t.Errorf("mode = %q, want remove", m.Mode())
	}

	m.BeginAdd("")
	if m.Mode() != ModeAdd {
		t.Errorf("add should replace remove, mode = %q", m.Mode())
	}

	m.BeginRemove()
	m.BeginRemove()
	if m.Mode() != ModePopulated {
		t.Errorf("re-invoking remove should exit, mode = %q", m.Mode())
	}

	m.BeginAdd(plan.Window)
	m.ExitEdit()
	if m.Mode() != ModePopulated {
		t.Errorf("ExitEdit: mode = %q", m.Mode())
	}
}

func TestBeginAddUnknownCategory(t *testing.T) {
	m := seeded(t)
	m.BeginAdd("garage")
	if m.Mode() != ModePopulated {
		t.Errorf("mode = %q, want populated", m.Mode())
	}
}

func TestCommitAdd(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Window)
	before := m.Len()

	el, ok := m.CommitAdd(plan.Point{Y: 100, X: 100}, plan.Point{Y: 300, X: 400}, plan.Window)
	if !ok {
		t.Fatal("CommitAdd rejected a valid rectangle")
	}
	if m.Len() != before+1 {
		t.Errorf("len = %d, want %d", m.Len(), before+1)
	}

	if want := (plan.Box{YMin: 100, XMin: 100, YMax: 300, XMax: 400}); el.Box != want {
		t.Errorf("box = %+v, want %+v", el.Box, want)
	}
	if !strings.HasSuffix(el.Label, "(Manual)") {
		t.Errorf("label = %q, want (Manual) suffix", el.Label)
	}
	if el.Source != plan.SourceManual || el.Category != plan.Window {
		t.Errorf("source/category = %q/%q", el.Source, el.Category)
	}

	last := m.Elements()[m.Len()-1]
	if last.ID != el.ID {
		t.Errorf("new element should be appended last, got %q", last.ID)
	}
	if m.Mode() != ModeAdd {
		t.Errorf("add mode should stay active, mode = %q", m.Mode())
	}
}

func TestCommitAddRejectsSmallRectangles(t *testing.T) {
	tests := []struct {
		name string
		a, b plan.Point
	}{
		{"click", plan.Point{X: 100, Y: 100}, plan.Point{X: 100, Y: 100}},
		{"narrow", plan.Point{X: 100, Y: 100}, plan.Point{X: 109, Y: 400}},
		{"flat", plan.Point{X: 100, Y: 100}, plan.Point{X: 400, Y: 109}},
		{"clamped away", plan.Point{X: 1200, Y: 100}, plan.Point{X: 1005, Y: 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := seeded(t)
			m.BeginAdd(plan.Door)
			before := m.Elements()

			if _, ok := m.CommitAdd(tt.a, tt.b, plan.Door); ok {
				t.Error("CommitAdd should reject")
			}
			if !reflect.DeepEqual(before, m.Elements()) {
				t.Error("elements changed")
			}
		})
	}
}

func TestCommitAddMinimumAccepted(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Door)
	if _, ok := m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 10, Y: 10}, ""); !ok {
		t.Error("a 10x10 rectangle meets the minimum")
	}
}

func TestCommitAddClampsToCanvas(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Perimeter)
	el, ok := m.CommitAdd(plan.Point{X: -40, Y: -40}, plan.Point{X: 1300, Y: 990}, "")
	if !ok {
		t.Fatal("CommitAdd rejected")
	}
	if want := (plan.Box{YMin: 0, XMin: 0, YMax: 990, XMax: 1000}); el.Box != want {
		t.Errorf("box = %+v, want %+v", el.Box, want)
	}
	if el.Category != plan.Perimeter {
		t.Errorf("empty category should use the active one, got %q", el.Category)
	}
}

func TestCommitAddOutsideAddMode(t *testing.T) {
	m := seeded(t)
	if _, ok := m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 500, Y: 500}, plan.Window); ok {
		t.Error("CommitAdd outside add mode must be ignored")
	}
}

func TestManualIDsAreUnique(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Window)
	a, _ := m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 50, Y: 50}, "")
	b, _ := m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 50, Y: 50}, "")
	if a.ID == b.ID {
		t.Errorf("duplicate manual id %q", a.ID)
	}
}

func TestRemoveElement(t *testing.T) {
	m := seeded(t)
	m.BeginRemove()

	if !m.RemoveElement("pred-1") {
		t.Fatal("RemoveElement(pred-1) reported no change")
	}
	for _, el := range m.Elements() {
		if el.ID == "pred-1" {
			t.Error("pred-1 still present")
		}
	}
	if m.Len() != 2 {
		t.Errorf("len = %d, want 2", m.Len())
	}
	if m.Elements()[0].ID != "pred-0" || m.Elements()[1].ID != "pred-2" {
		t.Error("remaining order changed")
	}
}

func TestRemoveElementMissingID(t *testing.T) {
	m := seeded(t)
	m.BeginRemove()
	before := m.Elements()

	if m.RemoveElement("nonexistent-id") {
		t.Error("RemoveElement should report no change")
	}
	if !reflect.DeepEqual(before, m.Elements()) {
		t.Error("elements changed")
	}
}

func TestRemoveElementOutsideRemoveMode(t *testing.T) {
	m := seeded(t)
	if m.RemoveElement("pred-0") {
		t.Error("RemoveElement outside remove mode must be ignored")
	}
}

func TestRemoveAtTopmostVisible(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Window)
	top, _ := m.CommitAdd(plan.Point{X: 60, Y: 60}, plan.Point{X: 140, Y: 140}, "")
	m.BeginRemove()

	el, ok := m.RemoveAt(plan.Point{X: 100, Y: 100})
	if !ok || el.ID != top.ID {
		t.Fatalf("RemoveAt removed %q, want %q", el.ID, top.ID)
	}

	m.ToggleVisibility(plan.Door)
	if _, ok := m.RemoveAt(plan.Point{X: 100, Y: 100}); ok {
		t.Error("hidden elements must not be hit")
	}
}

func TestSummary(t *testing.T) {
	m := seeded(t)
	got := m.Summary()
	want := map[plan.Category]int{
		plan.Perimeter: 0,
		plan.Bathroom:  0,
		plan.Window:    1,
		plan.Door:      2,
		plan.Stairs:    0,
		plan.Furniture: 0,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summary() = %v, want %v", got, want)
	}

	if !reflect.DeepEqual(m.Summary(), m.Summary()) {
		t.Error("Summary() is not idempotent")
	}
}

func TestSummaryTracksEdits(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Bathroom)
	m.CommitAdd(plan.Point{X: 0, Y: 0}, plan.Point{X: 100, Y: 100}, "")
	m.BeginRemove()
	m.RemoveElement("pred-0")

	s := m.Summary()
	if s[plan.Bathroom] != 1 || s[plan.Door] != 1 {
		t.Errorf("Summary() = %v", s)
	}
}

func TestSummaryUnknownCategory(t *testing.T) {
	m := New(plan.DefaultRegistry())
	m.Load([]plan.Element{{ID: "pred-0", Category: plan.Unknown, Class: "balcony"}})

	if got := m.Summary()[plan.Unknown]; got != 1 {
		t.Errorf("unknown count = %d, want 1", got)
	}
	legend := m.Legend()
	if last := legend[len(legend)-1]; last.Category != plan.Unknown || last.Count != 1 {
		t.Errorf("legend should end with unknown, got %+v", last)
	}
}

func TestLegendOmitsHiddenEmptyCategories(t *testing.T) {
	m := seeded(t)
	m.ToggleVisibility(plan.Stairs)
	m.ToggleVisibility(plan.Door)

	var names []plan.Category
	for _, e := range m.Legend() {
		names = append(names, e.Category)
	}
	want := []plan.Category{plan.Perimeter, plan.Bathroom, plan.Window, plan.Door, plan.Furniture}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("legend = %v, want %v", names, want)
	}
}

func TestResetDiscardsState(t *testing.T) {
	m := seeded(t)
	m.BeginAdd(plan.Window)
	m.Reset()

	if m.Mode() != ModeEmpty || m.Len() != 0 {
		t.Errorf("after reset: mode = %q, len = %d", m.Mode(), m.Len())
	}
}
