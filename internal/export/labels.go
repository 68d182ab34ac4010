package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/roomlayout/internal/model"
)

// LabelInfo holds the data encoded into each item label's QR code.
type LabelInfo struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Width    float64 `json:"width_m"`
	Height   float64 `json:"height_m"`
	X        float64 `json:"center_x_m"`
	Y        float64 `json:"center_y_m"`
	Rotation float64 `json:"rotation_deg"`
	Room     string  `json:"room"`
}

// Label sheet constants (A4 portrait in mm).
const (
	labelPageWidth    = 210.0
	labelPageHeight   = 297.0
	labelMargin       = 8.0
	labelPadding      = 3.0
	labelCols         = 2
	DefaultLabelCount = 8
)

// labelGrid is the cell layout for a given number of labels per page.
type labelGrid struct {
	cols, rows int
	w, h       float64
}

func newLabelGrid(perPage int) labelGrid {
	if perPage <= 0 {
		perPage = DefaultLabelCount
	}
	cols := labelCols
	if perPage < cols {
		cols = perPage
	}
	rows := (perPage + cols - 1) / cols
	return labelGrid{
		cols: cols,
		rows: rows,
		w:    (labelPageWidth - 2*labelMargin) / float64(cols),
		h:    (labelPageHeight - 2*labelMargin) / float64(rows),
	}
}

func (g labelGrid) perPage() int { return g.cols * g.rows }

// ExportLabels writes a PDF of placement tags, one per item, for whoever
// carries the furniture in. Each tag shows the item id, its size and where
// its center goes, with a QR code holding the same data as JSON. perPage
// labels are laid out two across on A4; zero or less selects
// DefaultLabelCount.
func ExportLabels(path string, plan Plan, perPage int) error {
	if plan.empty() {
		return ErrEmptyPlan
	}
	labels := CollectLabelInfos(plan)
	grid := newLabelGrid(perPage)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%grid.perPage() == 0 {
			pdf.AddPage()
		}

		pos := i % grid.perPage()
		x := labelMargin + float64(pos%grid.cols)*grid.w
		y := labelMargin + float64(pos/grid.cols)*grid.h

		if err := renderLabel(pdf, grid, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, grid labelGrid, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.SetDashPattern([]float64{2, 1}, 0)
	pdf.Rect(x, y, grid.w, grid.h, "D")
	pdf.SetDashPattern([]float64{}, 0)

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + info.ID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrSize := math.Min(grid.h-2*labelPadding, grid.w/2-labelPadding)
	qrX := x + grid.w - qrSize - labelPadding
	qrY := y + (grid.h-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := grid.w - qrSize - 3*labelPadding

	// colour bar matching the floor plan
	pdf.SetFillColor(rgb(typeColor(model.FurnitureType(info.Type))))
	pdf.Rect(textX, y+labelPadding, textW, 2, "F")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding+3)
	pdf.CellFormat(textW, 6, truncate(pdf, info.ID, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(textX, y+labelPadding+10)
	pdf.CellFormat(textW, 4.5, model.FurnitureType(info.Type).Label(), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+15)
	pdf.CellFormat(textW, 4.5, fmt.Sprintf("%.2f x %.2f m", info.Width, info.Height), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+20)
	pdf.CellFormat(textW, 4, fmt.Sprintf("Center (%.2f, %.2f)", info.X, info.Y), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+24)
	pdf.CellFormat(textW, 4, fmt.Sprintf("Facing %.0f\xb0", info.Rotation), "", 1, "L", false, 0, "")

	if info.Room != "" && grid.h > 40 {
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetXY(textX, y+grid.h-labelPadding-4)
		pdf.CellFormat(textW, 4, truncate(pdf, info.Room, textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits in w at the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts one label per placed item, in layout order.
func CollectLabelInfos(plan Plan) []LabelInfo {
	if plan.Layout == nil {
		return nil
	}
	labels := make([]LabelInfo, 0, plan.Layout.Len())
	for _, f := range plan.Layout.Items {
		c := f.Center()
		labels = append(labels, LabelInfo{
			ID:       f.ID,
			Type:     string(f.Type),
			Width:    f.Width,
			Height:   f.Height,
			X:        math.Round(c[0]*1000) / 1000,
			Y:        math.Round(c[1]*1000) / 1000,
			Rotation: f.Rotation,
			Room:     plan.Name,
		})
	}
	return labels
}
