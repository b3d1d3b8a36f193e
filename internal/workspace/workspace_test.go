package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"floorplan-detect/internal/overlay"
	"floorplan-detect/internal/plan"
)

func testAnalysis() Analysis {
	return Analysis{
		Image:     []byte("img"),
		ImageName: "plan.png",
		Width:     1000,
		Height:    500,
		Elements: []plan.Element{
			{ID: "pred-0", Category: plan.Door, Box: plan.Box{YMin: 80, XMin: 80, YMax: 120, XMax: 120}},
		},
	}
}

func TestAnalysisLifecycle(t *testing.T) {
	m := NewManager(plan.DefaultRegistry(), time.Hour)
	ws := m.Create()

	_, ticket := ws.BeginAnalysis(context.Background())
	if !ws.Processing() {
		t.Fatal("workspace should be processing")
	}

	if !ws.CompleteAnalysis(ticket, testAnalysis()) {
		t.Fatal("current ticket was rejected")
	}

	v := ws.View()
	if v.Processing || v.Mode != overlay.ModePopulated {
		t.Errorf("view = processing %v, mode %q", v.Processing, v.Mode)
	}
	if len(v.Elements) != 1 || v.Summary[plan.Door] != 1 {
		t.Errorf("elements = %d, summary = %v", len(v.Elements), v.Summary)
	}
	if v.Elements[0].Style != (plan.Rect{Top: 8, Left: 8, Height: 4, Width: 4}) {
		t.Errorf("style = %+v", v.Elements[0].Style)
	}
}

func TestNewAnalysisInvalidatesPrevious(t *testing.T) {
	ws := NewManager(plan.DefaultRegistry(), time.Hour).Create()

	firstCtx, first := ws.BeginAnalysis(context.Background())
	_, second := ws.BeginAnalysis(context.Background())

	if !errors.Is(firstCtx.Err(), context.Canceled) {
		t.Error("first analysis context should be cancelled")
	}
	if ws.CompleteAnalysis(first, testAnalysis()) {
		t.Error("stale result must be discarded")
	}
	if ws.View().Mode != overlay.ModeEmpty {
		t.Error("stale result must not populate the overlay")
	}
	if !ws.CompleteAnalysis(second, testAnalysis()) {
		t.Error("current result was rejected")
	}
}

func TestResetDiscardsInflight(t *testing.T) {
	ws := NewManager(plan.DefaultRegistry(), time.Hour).Create()
	ctx, ticket := ws.BeginAnalysis(context.Background())

	ws.Reset()

	if ctx.Err() == nil {
		t.Error("reset should cancel the in-flight analysis")
	}
	if ws.CompleteAnalysis(ticket, testAnalysis()) {
		t.Error("result after reset must be discarded")
	}
	if ws.Processing() {
		t.Error("workspace should not be processing after reset")
	}
}

func TestFailAnalysisReturnsToEmpty(t *testing.T) {
	ws := NewManager(plan.DefaultRegistry(), time.Hour).Create()

	_, t1 := ws.BeginAnalysis(context.Background())
	ws.CompleteAnalysis(t1, testAnalysis())

	_, t2 := ws.BeginAnalysis(context.Background())
	if !ws.FailAnalysis(t2) {
		t.Fatal("FailAnalysis rejected the current ticket")
	}

	v := ws.View()
	if v.Mode != overlay.ModeEmpty || len(v.Elements) != 0 || v.Processing {
		t.Errorf("view after failure = %+v", v)
	}
	image, _, _ := ws.Snapshot()
	if image != nil {
		t.Error("image should be dropped after failure")
	}
}

func TestUpdate(t *testing.T) {
	ws := NewManager(plan.DefaultRegistry(), time.Hour).Create()
	_, ticket := ws.BeginAnalysis(context.Background())
	ws.CompleteAnalysis(ticket, testAnalysis())

	v := ws.Update(func(m *overlay.Model) {
		m.ToggleVisibility(plan.Door)
	})
	if v.Visibility[plan.Door] || v.Elements[0].Visible {
		t.Error("door should be hidden")
	}

	_, _, visible := ws.Snapshot()
	if len(visible) != 0 {
		t.Errorf("snapshot should skip hidden elements, got %d", len(visible))
	}
}

func TestManagerGetDelete(t *testing.T) {
	m := NewManager(plan.DefaultRegistry(), time.Hour)
	ws := m.Create()

	if got, ok := m.Get(ws.ID); !ok || got != ws {
		t.Fatal("Get did not return the created workspace")
	}
	if !m.Delete(ws.ID) {
		t.Error("Delete reported missing workspace")
	}
	if _, ok := m.Get(ws.ID); ok {
		t.Error("workspace still present after Delete")
	}
	if m.Delete(ws.ID) {
		t.Error("second Delete should report false")
	}
}

func TestManagerSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(plan.DefaultRegistry(), time.Minute)
	m.now = func() time.Time { return now }

	idle := m.Create()
	busy := m.Create()
	busy.BeginAnalysis(context.Background())

	now = now.Add(2 * time.Minute)
	fresh := m.Create()

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Error("idle workspace should be swept")
	}
	if _, ok := m.Get(busy.ID); !ok {
		t.Error("processing workspace must survive sweep")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Error("fresh workspace must survive sweep")
	}
}
