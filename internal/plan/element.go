package plan

import "fmt"

// ============================================================
// Plan Element
// ============================================================

type Source string

const (
	SourceDetection Source = "detection"
	SourceManual    Source = "manual"
)

// Element: найденный моделью или добавленный вручную элемент плана.
type Element struct {
	ID         string   `json:"id"`
	Category   Category `json:"type"`
	Class      string   `json:"class,omitempty"`
	Label      string   `json:"label"`
	Box        Box      `json:"box_2d"`
	Source     Source   `json:"source"`
	Confidence float64  `json:"confidence,omitempty"`
}

func DetectionID(index int) string { return fmt.Sprintf("pred-%d", index) }
func ManualID(seq int) string      { return fmt.Sprintf("manual-%d", seq) }

// DetectionLabel: "door (87%)"
func DetectionLabel(class string, percent int) string {
	return fmt.Sprintf("%s (%d%%)", class, percent)
}

// ManualLabel: "window (Manual)"
func ManualLabel(c Category) string {
	return fmt.Sprintf("%s (Manual)", c)
}
