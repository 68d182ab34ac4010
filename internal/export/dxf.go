package export

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/roomlayout/internal/importer"
	"github.com/piwi3910/roomlayout/internal/model"
)

// dxfTextHeight is the label height in drawing units (metres).
const dxfTextHeight = 0.08

// ExportDXF writes the layout as a DXF drawing in metres, with the room,
// openings, clearances and furniture on separate layers. The layer names
// match the ones ImportRoomDXF reads, so an exported plan can be loaded back
// as a room.
func ExportDXF(path string, plan Plan) error {
	if plan.empty() {
		return ErrEmptyPlan
	}
	if err := plan.Room.Validate(); err != nil {
		return err
	}

	d := dxf.NewDrawing()

	if err := layer(d, importer.LayerRoom, color.White); err != nil {
		return err
	}
	if err := ring(d, plan.Room.Polygon()); err != nil {
		return err
	}

	if err := layer(d, importer.LayerDoors, color.Yellow); err != nil {
		return err
	}
	for _, r := range plan.Room.Doors {
		if err := ring(d, r.Ring()); err != nil {
			return err
		}
	}

	if err := layer(d, importer.LayerWindows, color.Cyan); err != nil {
		return err
	}
	for _, r := range plan.Room.Windows {
		if err := ring(d, r.Ring()); err != nil {
			return err
		}
	}

	if err := layer(d, importer.LayerClearance, color.Green); err != nil {
		return err
	}
	for _, f := range plan.Layout.Items {
		if f.Clearance <= 0 {
			continue
		}
		if err := ring(d, f.BufferedPolygon()); err != nil {
			return err
		}
	}

	if err := layer(d, importer.LayerFurniture, color.Red); err != nil {
		return err
	}
	for _, f := range plan.Layout.Items {
		if err := furniture(d, f); err != nil {
			return err
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

// layer adds a layer and makes it current.
func layer(d *drawing.Drawing, name string, c color.ColorNumber) error {
	if _, err := d.AddLayer(name, c, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", name, err)
	}
	return nil
}

// ring draws a closed outline as line segments on the current layer.
func ring(d *drawing.Drawing, r orb.Ring) error {
	pts := vertices(r)
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}

// furniture draws a footprint, a heading tick and the item id.
func furniture(d *drawing.Drawing, f *model.Furniture) error {
	if err := ring(d, f.Polygon()); err != nil {
		return err
	}
	c := f.Center()
	reach := math.Min(f.Width, f.Height) / 2
	sin, cos := math.Sincos(f.Rotation * math.Pi / 180)
	if _, err := d.Line(c[0], c[1], 0, c[0]+cos*reach, c[1]+sin*reach, 0); err != nil {
		return err
	}
	_, err := d.Text(f.ID, c[0]-reach/2, c[1]-dxfTextHeight-0.02, 0, dxfTextHeight)
	return err
}
