package export

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/roomlayout/internal/model"
)

func TestExportSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	plan := buildTestPlan()
	plan.Removed = []string{"sofa-1"}
	require.NoError(t, ExportSchedule(path, plan))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ScheduleSheet, ScoresSheet}, f.GetSheetList())

	rows, err := f.GetRows(ScheduleSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, scheduleHeaders, rows[0])

	bed := rows[1]
	assert.Equal(t, "bed-1", bed[0])
	assert.Equal(t, "bed", bed[1])
	assert.Equal(t, "Bed", bed[2])
	cx, err := strconv.ParseFloat(bed[5], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, cx, 1e-9)
	rot, err := strconv.ParseFloat(bed[9], 64)
	require.NoError(t, err)
	assert.InDelta(t, 270, rot, 1e-9)
	assert.Equal(t, "desk-1", rows[3][0])

	scores, err := f.GetRows(ScoresSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Term", "Score"}, scores[0])
	assert.Equal(t, model.TermComfort, scores[1][0])

	// six terms, then the total
	assert.Equal(t, "total", scores[7][0])
	total, err := strconv.ParseFloat(scores[7][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 4.12, total, 1e-9)

	last := scores[len(scores)-1]
	assert.Equal(t, "sofa-1", last[0])
}

func TestExportScheduleEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	err := ExportSchedule(path, Plan{Room: model.NewRoom(2, 2), Layout: model.NewLayout()})
	assert.ErrorIs(t, err, ErrEmptyPlan)
}
