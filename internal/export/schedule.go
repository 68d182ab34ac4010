package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	ScheduleSheet = "Schedule"
	ScoresSheet   = "Scores"
)

var scheduleHeaders = []string{
	"ID", "Type", "Label", "X (m)", "Y (m)", "Center X (m)", "Center Y (m)",
	"Width (m)", "Height (m)", "Rotation (deg)", "Clearance (m)",
}

// ExportSchedule writes an Excel workbook with a furniture schedule on the
// first sheet and the score breakdown on the second.
func ExportSchedule(path string, plan Plan) error {
	if plan.empty() {
		return ErrEmptyPlan
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ScheduleSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeSchedule(f, plan); err != nil {
		return err
	}

	if _, err := f.NewSheet(ScoresSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := writeScores(f, plan); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
	})
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func writeSchedule(f *excelize.File, plan Plan) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(scheduleHeaders))
	for i, h := range scheduleHeaders {
		values[i] = h
	}
	if err := writeRow(f, ScheduleSheet, 1, values...); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(scheduleHeaders), 1)
	if err := f.SetCellStyle(ScheduleSheet, "A1", last, header); err != nil {
		return err
	}

	// one fill per type so the sheet reads like the plan legend
	styles := map[string]int{}
	for i, item := range plan.Layout.Items {
		row := i + 2
		c := item.Center()
		err := writeRow(f, ScheduleSheet, row,
			item.ID,
			string(item.Type),
			item.Type.Label(),
			round3(item.X),
			round3(item.Y),
			round3(c[0]),
			round3(c[1]),
			item.Width,
			item.Height,
			item.Rotation,
			item.Clearance,
		)
		if err != nil {
			return err
		}

		style, ok := styles[string(item.Type)]
		if !ok {
			hex := strings.TrimPrefix(clearanceColor(item.Type).Hex(), "#")
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
			})
			if err != nil {
				return err
			}
			styles[string(item.Type)] = style
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellStyle(ScheduleSheet, start, end, style); err != nil {
			return err
		}
	}
	return f.SetColWidth(ScheduleSheet, "A", "K", 14)
}

func writeScores(f *excelize.File, plan Plan) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeRow(f, ScoresSheet, 1, "Term", "Score"); err != nil {
		return err
	}
	if err := f.SetCellStyle(ScoresSheet, "A1", "B1", header); err != nil {
		return err
	}

	row := 2
	for _, term := range plan.terms() {
		if err := writeRow(f, ScoresSheet, row, term, plan.Breakdown[term]); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, ScoresSheet, row, "total", plan.Score); err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(ScoresSheet, cell, cell, header); err != nil {
		return err
	}

	if len(plan.Removed) > 0 {
		row += 2
		if err := writeRow(f, ScoresSheet, row, "Not placed"); err != nil {
			return err
		}
		for _, id := range plan.Removed {
			row++
			if err := writeRow(f, ScoresSheet, row, id); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(ScoresSheet, "A", "B", 20)
}
