package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/roomlayout/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.pdf")

	if err := ExportLabels(path, buildTestPlan(), 0); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportLabels_EmptyPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")

	plan := Plan{Room: model.NewRoom(3, 3)}
	if err := ExportLabels(path, plan, 8); err != ErrEmptyPlan {
		t.Fatalf("expected ErrEmptyPlan, got %v", err)
	}
}

func TestExportLabels_MultiplePages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.pdf")

	// three items at one per page
	if err := ExportLabels(path, buildTestPlan(), 1); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
}

func TestNewLabelGrid(t *testing.T) {
	tests := []struct {
		perPage    int
		cols, rows int
	}{
		{0, 2, 4},
		{8, 2, 4},
		{1, 1, 1},
		{5, 2, 3},
		{12, 2, 6},
	}
	for _, tt := range tests {
		g := newLabelGrid(tt.perPage)
		if g.cols != tt.cols || g.rows != tt.rows {
			t.Errorf("newLabelGrid(%d) = %dx%d, want %dx%d", tt.perPage, g.cols, g.rows, tt.cols, tt.rows)
		}
		if g.w <= 0 || g.h <= 0 {
			t.Errorf("newLabelGrid(%d) has empty cells", tt.perPage)
		}
	}
}

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildTestPlan())

	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}

	bed := labels[0]
	if bed.ID != "bed-1" || bed.Type != "bed" {
		t.Errorf("expected first label to be bed-1, got %q (%s)", bed.ID, bed.Type)
	}
	if bed.Width != 2.0 || bed.Height != 1.6 {
		t.Errorf("wrong dimensions: got %.2fx%.2f, want 2.00x1.60", bed.Width, bed.Height)
	}
	// center of a 2.0 x 1.6 footprint at (0.5, 1.6)
	if bed.X != 1.5 || bed.Y != 2.4 {
		t.Errorf("expected center (1.5, 2.4), got (%v, %v)", bed.X, bed.Y)
	}
	if bed.Rotation != 270 {
		t.Errorf("expected rotation 270, got %v", bed.Rotation)
	}
	if bed.Room != "Guest Room" {
		t.Errorf("expected room name on label, got %q", bed.Room)
	}

	if labels[2].ID != "desk-1" {
		t.Errorf("labels should follow layout order, got %q last", labels[2].ID)
	}
}

func TestCollectLabelInfos_NilLayout(t *testing.T) {
	if labels := CollectLabelInfos(Plan{}); len(labels) != 0 {
		t.Errorf("expected no labels, got %d", len(labels))
	}
}

func TestLabelInfo_JSONRoundTrip(t *testing.T) {
	info := LabelInfo{
		ID:       "sofa-1",
		Type:     "sofa",
		Width:    2.0,
		Height:   0.9,
		X:        2.5,
		Y:        0.45,
		Rotation: 90,
		Room:     "Lounge",
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("failed to marshal LabelInfo: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal LabelInfo: %v", err)
	}
	for _, key := range []string{"id", "type", "width_m", "height_m", "center_x_m", "center_y_m", "rotation_deg", "room"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected key %q in QR payload", key)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	plan := buildTestPlan()
	plan.Name = "A very long room name that will never fit on a single small tag at all"
	plan.Layout.Items[0].ID = "an-extremely-long-identifier-for-a-bed-that-overflows"

	dir := t.TempDir()
	if err := ExportLabels(filepath.Join(dir, "long.pdf"), plan, 12); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
}
