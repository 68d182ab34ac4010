package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// canvas maps room coordinates (metres, y up) to page coordinates (mm, y down).
type canvas struct {
	scale   float64
	offsetX float64
	offsetY float64
	roomH   float64
}

func (c canvas) point(p orb.Point) (float64, float64) {
	return c.offsetX + p[0]*c.scale, c.offsetY + (c.roomH-p[1])*c.scale
}

func (c canvas) polygon(r orb.Ring) []fpdf.PointType {
	pts := vertices(r)
	out := make([]fpdf.PointType, len(pts))
	for i, p := range pts {
		x, y := c.point(p)
		out[i] = fpdf.PointType{X: x, Y: y}
	}
	return out
}

func (c canvas) rect(pdf *fpdf.Fpdf, r model.Rect, style string) {
	x, y := c.point(orb.Point{r.X, r.Y + r.Height})
	pdf.Rect(x, y, r.Width*c.scale, r.Height*c.scale, style)
}

// ExportPDF writes a two page PDF: the floor plan of the layout, then a
// summary with the score breakdown, the furniture schedule and any items
// that could not be placed.
func ExportPDF(path string, plan Plan) error {
	if plan.empty() {
		return ErrEmptyPlan
	}
	if err := plan.Room.Validate(); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderFloorPlan(pdf, plan)

	pdf.AddPage()
	renderSummaryPage(pdf, plan)

	return pdf.OutputFileAndClose(path)
}

// renderFloorPlan draws the room, its openings and every item on the current
// page.
func renderFloorPlan(pdf *fpdf.Fpdf, plan Plan) {
	room := plan.Room

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s (%.2f x %.2f m)", plan.Name, room.Width, room.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	used := plan.Layout.UsedArea()
	stats := fmt.Sprintf("Items: %d | Footprint: %.2f m² of %.2f m² (%.1f%%) | Score: %.2f",
		plan.Layout.Len(), used, room.Area(), 100*used/room.Area(), plan.Score)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, tr(stats), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/room.Width, drawHeight/room.Height)
	canvasW := room.Width * scale
	canvasH := room.Height * scale
	c := canvas{
		scale:   scale,
		offsetX: marginLeft + (drawWidth-canvasW)/2,
		offsetY: drawAreaTop,
		roomH:   room.Height,
	}

	// floor
	pdf.SetFillColor(245, 240, 230)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.8)
	pdf.Rect(c.offsetX, c.offsetY, canvasW, canvasH, "FD")

	// zones
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.SetTextColor(120, 120, 120)
	for _, z := range room.Zones {
		c.rect(pdf, z.Rect, "D")
		x, y := c.point(orb.Point{z.Rect.X, z.Rect.Y + z.Rect.Height})
		pdf.SetXY(x+1, y+1)
		pdf.CellFormat(z.Rect.Width*scale-2, 3, z.Name, "", 0, "L", false, 0, "")
	}
	pdf.SetDashPattern([]float64{}, 0)

	// clearance buffers below the furniture
	pdf.SetLineWidth(0.1)
	for _, f := range plan.Layout.Items {
		if f.Clearance <= 0 {
			continue
		}
		pdf.SetFillColor(rgb(clearanceColor(f.Type)))
		pdf.SetDrawColor(rgb(typeColor(f.Type)))
		pdf.Polygon(c.polygon(f.BufferedPolygon()), "FD")
	}

	// doors and windows
	pdf.SetLineWidth(0.3)
	pdf.SetFillColor(141, 110, 99)
	pdf.SetDrawColor(93, 64, 55)
	for _, d := range room.Doors {
		c.rect(pdf, d, "FD")
	}
	pdf.SetFillColor(179, 229, 252)
	pdf.SetDrawColor(2, 119, 189)
	for _, w := range room.Windows {
		c.rect(pdf, w, "FD")
	}

	for _, f := range plan.Layout.Items {
		drawItem(pdf, c, f)
	}

	drawDimensionAnnotations(pdf, room, c.offsetX, c.offsetY, canvasW, canvasH)
	drawLegend(pdf, plan.Layout, c.offsetY+canvasH+6)
}

// drawItem renders one footprint with its id and a heading arrow.
func drawItem(pdf *fpdf.Fpdf, c canvas, f *model.Furniture) {
	pdf.SetFillColor(rgb(typeColor(f.Type)))
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	pdf.Polygon(c.polygon(f.Polygon()), "FD")

	center := f.Center()
	cx, cy := c.point(center)
	reach := math.Min(f.Width, f.Height) / 2 * 0.8
	sin, cos := math.Sincos(f.Rotation * math.Pi / 180)
	tx, ty := c.point(orb.Point{center[0] + cos*reach, center[1] + sin*reach})
	pdf.SetLineWidth(0.4)
	pdf.Line(cx, cy, tx, ty)
	pdf.Circle(tx, ty, 0.6, "F")

	w := f.Width * c.scale
	h := f.Height * c.scale
	if math.Min(w, h) < 6 {
		return
	}
	pdf.SetFont("Helvetica", "", labelFontSize(w, h))
	pdf.SetTextColor(0, 0, 0)
	labelW := pdf.GetStringWidth(f.ID)
	if labelW < math.Max(w, h)-2 {
		pdf.SetXY(cx-labelW/2, cy+0.5)
		pdf.CellFormat(labelW, 3.5, f.ID, "", 0, "C", false, 0, "")
	}
}

// drawDimensionAnnotations adds width and height labels outside the room.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, room model.Room, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.2f m", room.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.2f m", room.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawLegend lists the furniture types present with their colour swatch.
func drawLegend(pdf *fpdf.Fpdf, l *model.Layout, startY float64) {
	counts := l.CountByType()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Furniture:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, t := range model.AllTypes {
		n := counts[t]
		if n == 0 {
			continue
		}
		label := fmt.Sprintf("%s x%d", t.Label(), n)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(rgb(typeColor(t)))
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the score breakdown and furniture schedule.
func renderSummaryPage(pdf *fpdf.Fpdf, plan Plan) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Layout Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Score", "", 0, "L", false, 0, "")
	y += 9

	rows := []struct {
		label string
		value string
	}{{"Total", fmt.Sprintf("%.2f", plan.Score)}}
	for _, term := range plan.terms() {
		rows = append(rows, struct {
			label string
			value string
		}{termLabel(term), fmt.Sprintf("%.2f", plan.Breakdown[term])})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range rows {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}

	// schedule in a second column so both fit on one page
	scheduleX := marginLeft + 110
	sy := marginTop + 18
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(scheduleX, sy)
	pdf.CellFormat(100, 7, "Furniture Schedule", "", 0, "L", false, 0, "")
	sy += 9

	colWidths := []float64{36, 22, 30, 24, 20}
	headers := []string{"ID", "Type", "Center (m)", "Size (m)", "Rotation"}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := scheduleX
	for i, header := range headers {
		pdf.SetXY(xPos, sy)
		pdf.CellFormat(colWidths[i], 5, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	sy += 5

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 7)
	maxY := pageHeight - marginBottom - 10
	for i, f := range plan.Layout.Items {
		if sy > maxY {
			pdf.SetXY(scheduleX, sy)
			pdf.CellFormat(100, 4, fmt.Sprintf("... and %d more", plan.Layout.Len()-i), "", 0, "L", false, 0, "")
			break
		}
		center := f.Center()
		rowData := []string{
			f.ID,
			f.Type.Label(),
			fmt.Sprintf("%.2f, %.2f", center[0], center[1]),
			fmt.Sprintf("%.2f x %.2f", f.Width, f.Height),
			fmt.Sprintf("%.0f°", f.Rotation),
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = scheduleX
		for j, cell := range rowData {
			pdf.SetXY(xPos, sy)
			pdf.CellFormat(colWidths[j], 4.5, tr(cell), "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		sy += 4.5
	}

	if len(plan.Removed) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(90, 7, "WARNING: Items not placed", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, id := range plan.Removed {
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(90, 5, "- "+id, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by roomlayout - furniture layout optimizer", "", 0, "C", false, 0, "")
}

// termLabel turns a weight key like "space_utilization" into a heading.
func termLabel(term string) string {
	return model.FurnitureType(term).Label()
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
