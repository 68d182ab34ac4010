package importer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"

	"github.com/piwi3910/roomlayout/internal/model"
)

// Layer names shared with the DXF floor plan export.
const (
	LayerRoom      = "ROOM"
	LayerDoors     = "DOORS"
	LayerWindows   = "WINDOWS"
	LayerFurniture = "FURNITURE"
	LayerClearance = "CLEARANCE"
)

// millimetreThreshold is the drawing extent above which coordinates are
// taken to be millimetres rather than metres.
const millimetreThreshold = 100.0

// RoomImportResult holds the results of a room import.
type RoomImportResult struct {
	Room     model.Room
	Errors   []string
	Warnings []string
}

// segment is a line between two points, used for chaining loose LINE and
// ARC entities into closed outlines.
type segment struct {
	start orb.Point
	end   orb.Point
}

type layered interface {
	Layer() *table.Layer
}

func layerName(e entity.Entity) string {
	if l, ok := e.(layered); ok && l.Layer() != nil {
		return strings.ToUpper(l.Layer().Name())
	}
	return ""
}

// ImportRoomDXF reads a room from a DXF drawing. The room is the bounding box
// of the geometry on the ROOM layer, or of all geometry when the drawing has
// no ROOM layer. Closed shapes on the DOORS and WINDOWS layers become door
// and window rectangles. The result is shifted so the room starts at the
// origin, and drawings larger than 100 units are read as millimetres.
func ImportRoomDXF(path string) RoomImportResult {
	result := RoomImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	byLayer := map[string][]orb.Ring{}
	loose := map[string][]segment{}
	for _, ent := range entities {
		layer := layerName(ent)
		switch e := ent.(type) {
		case *entity.LwPolyline:
			ring := lwPolylineToRing(e)
			if len(ring) >= 3 {
				byLayer[layer] = append(byLayer[layer], ring)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			byLayer[layer] = append(byLayer[layer], circleToRing(e, 64))

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				loose[layer] = append(loose[layer], pointsToSegments(pts)...)
			}

		case *entity.Line:
			loose[layer] = append(loose[layer], segment{
				start: orb.Point{e.Start[0], e.Start[1]},
				end:   orb.Point{e.End[0], e.End[1]},
			})

		default:
			// text, dimensions and blocks carry no outline
		}
	}
	for layer, segs := range loose {
		byLayer[layer] = append(byLayer[layer], chainSegments(segs, 0.01)...)
	}

	var outline orb.Bound
	found := false
	_, hasRoomLayer := byLayer[LayerRoom]
	for layer, rings := range byLayer {
		if hasRoomLayer && layer != LayerRoom {
			continue
		}
		if layer == LayerDoors || layer == LayerWindows {
			continue
		}
		for _, r := range rings {
			if !found {
				outline = r.Bound()
				found = true
				continue
			}
			outline = outline.Union(r.Bound())
		}
	}
	if !found {
		result.Errors = append(result.Errors, "No room outline found in DXF file")
		return result
	}

	scale := 1.0
	if outline.Max[0]-outline.Min[0] > millimetreThreshold || outline.Max[1]-outline.Min[1] > millimetreThreshold {
		scale = 0.001
		result.Warnings = append(result.Warnings, "Drawing is larger than 100 units, reading coordinates as millimetres")
	}
	toRect := func(b orb.Bound) model.Rect {
		return model.Rect{
			X:      (b.Min[0] - outline.Min[0]) * scale,
			Y:      (b.Min[1] - outline.Min[1]) * scale,
			Width:  (b.Max[0] - b.Min[0]) * scale,
			Height: (b.Max[1] - b.Min[1]) * scale,
		}
	}

	bounds := toRect(outline)
	if bounds.Width < 0.01 || bounds.Height < 0.01 {
		result.Errors = append(result.Errors, fmt.Sprintf("Room outline is degenerate (%.3f x %.3f m)", bounds.Width, bounds.Height))
		return result
	}
	result.Room = model.NewRoom(bounds.Width, bounds.Height)

	openings := func(layer string) []model.Rect {
		rings := byLayer[layer]
		sort.SliceStable(rings, func(i, j int) bool {
			bi, bj := rings[i].Bound(), rings[j].Bound()
			if bi.Min[0] != bj.Min[0] {
				return bi.Min[0] < bj.Min[0]
			}
			return bi.Min[1] < bj.Min[1]
		})
		out := []model.Rect{}
		for _, r := range rings {
			rect := toRect(r.Bound())
			if rect.Width <= 0 && rect.Height <= 0 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped empty shape on layer %s", layer))
				continue
			}
			out = append(out, rect)
		}
		return out
	}
	result.Room.Doors = openings(LayerDoors)
	result.Room.Windows = openings(LayerWindows)
	return result
}

// lwPolylineToRing converts a DXF LWPOLYLINE entity to a ring.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToRing(lw *entity.LwPolyline) orb.Ring {
	var ring orb.Ring

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := orb.Point{v[0], v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := orb.Point{lw.Vertices[nextIdx][0], lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			ring = append(ring, arcPts[:len(arcPts)-1]...)
		} else {
			ring = append(ring, current)
		}
	}

	return ring
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 orb.Point, bulge float64, numSegments int) []orb.Point {
	mx := (p1[0] + p2[0]) / 2
	my := (p1[1] + p2[1]) / 2
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	chordLen := math.Hypot(dx, dy)
	if chordLen < 1e-9 {
		return []orb.Point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1[1]-cy, p1[0]-cx)
	endAngle := math.Atan2(p2[1]-cy, p2[0]-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]orb.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, orb.Point{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)})
	}
	return pts
}

// circleToRing approximates a circle as a regular polygon.
func circleToRing(c *entity.Circle, numSegments int) orb.Ring {
	ring := make(orb.Ring, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		ring[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return ring
}

// arcToPoints converts a DXF ARC entity to a series of line points.
func arcToPoints(a *entity.Arc, numSegments int) []orb.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]orb.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return pts
}

// pointsToSegments converts a point sequence to a slice of connected segments.
func pointsToSegments(pts []orb.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects individual segments into outlines, largest first.
// tolerance is the maximum distance between endpoints to consider them
// connected. Open chains are kept: a wall drawn as separate lines still
// bounds the room.
func chainSegments(segs []segment, tolerance float64) []orb.Ring {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var rings []orb.Ring

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := orb.Ring{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 3 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			chain = chain[:len(chain)-1]
		}
		rings = append(rings, chain)
	}

	sort.SliceStable(rings, func(i, j int) bool {
		return math.Abs(planar.Area(rings[i])) > math.Abs(planar.Area(rings[j]))
	})

	return rings
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b orb.Point, tolerance float64) bool {
	return planar.Distance(a, b) <= tolerance
}
