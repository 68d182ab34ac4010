package rules

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// groupGap is the buffered-polygon gap left between a group anchor and its
// chairs.
const groupGap = 0.1

// heuristic proposes a variant of l that changes the item at index i, or nil
// when it has nothing to propose.
type heuristic func(l *model.Layout, i int) *model.Layout

// SoftPass runs the alignment heuristics (group arrangement, wall alignment,
// grid snapping) for up to SoftRounds rounds. A variant replaces the current
// layout only when it stays valid, does not add relational violations and
// scores strictly higher, so the pass always ends on the best layout seen. It
// stops early after a round without improvement.
func (e *Engine) SoftPass(l *model.Layout) Report {
	var rep Report
	if e.opts.Score == nil || len(l.Items) == 0 {
		return rep
	}
	best := e.opts.Score(l)
	violations := e.Violations(l)
	hard := e.HardViolations(l)

	for round := 0; round < e.opts.SoftRounds; round++ {
		improved := false
		for _, h := range []heuristic{e.groupVariant, e.wallVariant, e.snapVariant} {
			for i := 0; i < len(l.Items); i++ {
				v := h(l, i)
				if v == nil || v.Equal(l, 0) {
					continue
				}
				if !e.Valid(v) || e.HardViolations(v) > hard {
					continue
				}
				nv := e.Violations(v)
				if nv > violations {
					continue
				}
				s := e.opts.Score(v)
				if s <= best+1e-9 {
					continue
				}
				for k, f := range v.Items {
					if !samePose(f, l.Items[k]) {
						rep.Moved = append(rep.Moved, f.ID)
					}
				}
				l.Items = v.Items
				best, violations = s, nv
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return rep
}

func samePose(a, b *model.Furniture) bool {
	return a.X == b.X && a.Y == b.Y && a.Rotation == b.Rotation
}

// variantWith returns a copy of l with item i replaced by f, or nil when f
// does not fit.
func (e *Engine) variantWith(l *model.Layout, i int, f *model.Furniture) *model.Layout {
	if samePose(f, l.Items[i]) {
		return nil
	}
	ix := collision.Build(e.room.Bound(), l)
	if !e.placeable(f, ix, l) {
		return nil
	}
	v := &model.Layout{Items: make([]*model.Furniture, len(l.Items))}
	copy(v.Items, l.Items)
	v.Items[i] = f
	return v
}

// snapVariant moves an item onto the alignment grid.
func (e *Engine) snapVariant(l *model.Layout, i int) *model.Layout {
	f := l.Items[i]
	step := e.rules.GridStep
	if e.fixed(f.ID) || step <= 0 {
		return nil
	}
	cand := f.Clone()
	cand.SetPosition(math.Round(f.X/step)*step, math.Round(f.Y/step)*step)
	return e.variantWith(l, i, cand)
}

// wallVariant pushes an axis-aligned, wall-aligned item flush against the
// nearest wall (its buffered polygon touching the wall).
func (e *Engine) wallVariant(l *model.Layout, i int) *model.Layout {
	f := l.Items[i]
	rule, ok := e.rules.Rule(f.Type)
	if !ok || !rule.WallAligned || e.fixed(f.ID) || math.Mod(f.Rotation, 90) > 1e-6 {
		return nil
	}
	b := f.BufferedPolygon().Bound()
	gaps := []struct{ d, dx, dy float64 }{
		{b.Min[0], -b.Min[0], 0},
		{e.room.Width - b.Max[0], e.room.Width - b.Max[0], 0},
		{b.Min[1], 0, -b.Min[1]},
		{e.room.Height - b.Max[1], 0, e.room.Height - b.Max[1]},
	}
	sort.SliceStable(gaps, func(a, c int) bool { return gaps[a].d < gaps[c].d })
	if gaps[0].d <= geom.Eps {
		return nil
	}
	cand := f.Clone()
	cand.MoveBy(gaps[0].dx, gaps[0].dy)
	return e.variantWith(l, i, cand)
}

// groupVariant arranges the chairs of a group anchor (an item with a chair
// count) around it.
func (e *Engine) groupVariant(l *model.Layout, i int) *model.Layout {
	rule, ok := e.rules.Rule(l.Items[i].Type)
	if !ok || rule.ChairCount <= 0 {
		return nil
	}
	v, n := e.ArrangeGroup(l, l.Items[i].ID)
	if n == 0 {
		return nil
	}
	return v
}

// Slot is a target pose for a group member.
type Slot struct {
	Center   orb.Point
	Rotation float64
}

// GroupSlots returns chair poses around anchor: side midpoints first (front,
// back, left, right in the anchor's frame), spread along the long sides when
// more than four are requested. Each chair sits far enough out for its
// buffered polygon to clear the anchor's by groupGap and faces the anchor.
func (e *Engine) GroupSlots(anchor *model.Furniture, chairW, chairH, chairClear float64, count int) []Slot {
	if count <= 0 {
		return nil
	}
	hw, hh := anchor.Width/2, anchor.Height/2
	depth := anchor.Clearance + chairClear + groupGap + math.Max(chairW, chairH)/2

	type local struct{ x, y float64 }
	var pts []local
	if count <= 4 {
		pts = []local{{0, -hh - depth}, {0, hh + depth}, {-hw - depth, 0}, {hw + depth, 0}}[:count]
	} else {
		per := (count + 1) / 2
		for k := 0; k < per; k++ {
			x := -hw + (float64(k)+0.5)*anchor.Width/float64(per)
			pts = append(pts, local{x, -hh - depth})
		}
		for k := 0; k < count-per; k++ {
			x := -hw + (float64(k)+0.5)*anchor.Width/float64(count-per)
			pts = append(pts, local{x, hh + depth})
		}
	}

	c := anchor.Center()
	sin, cos := math.Sincos(anchor.Rotation * math.Pi / 180)
	slots := make([]Slot, len(pts))
	for k, p := range pts {
		center := orb.Point{c[0] + p.x*cos - p.y*sin, c[1] + p.x*sin + p.y*cos}
		slots[k] = Slot{Center: center, Rotation: geom.Heading(center, c)}
	}
	return slots
}

// ArrangeGroup moves the chairs closest to the anchor onto its group slots.
// It returns a copy of l and the number of chairs placed on slots; chairs
// whose slot is blocked keep their position. The result is nil with a count
// of zero when nothing could be arranged.
func (e *Engine) ArrangeGroup(l *model.Layout, anchorID string) (*model.Layout, int) {
	anchor := l.Find(anchorID)
	if anchor == nil {
		return nil, 0
	}
	rule, _ := e.rules.Rule(anchor.Type)
	chairs := candidatesOfTypes(anchor, l, []model.FurnitureType{model.TypeChair})
	var members []*model.Furniture
	for _, ch := range chairs {
		if e.fixed(ch.ID) || e.claimedElsewhere(ch, anchor, l) {
			continue
		}
		members = append(members, ch)
		if len(members) == rule.ChairCount {
			break
		}
	}
	if len(members) == 0 {
		return nil, 0
	}

	ref := members[0]
	slots := e.GroupSlots(anchor, ref.Width, ref.Height, ref.Clearance, rule.ChairCount)

	v := l.Clone()
	ix := collision.Build(e.room.Bound(), v)
	for _, m := range members {
		ix.Remove(m.ID)
	}

	used := make([]bool, len(slots))
	placed := 0
	var leftovers []*model.Furniture
	for _, m := range members {
		mi := v.IndexOf(m.ID)
		cur := v.Items[mi]
		bestSlot := -1
		var bestCand *model.Furniture
		bestDist := math.Inf(1)
		for k, s := range slots {
			if used[k] {
				continue
			}
			cand := cur.Clone()
			cand.SetCenter(s.Center)
			cand.SetRotation(s.Rotation)
			if !e.placeable(cand, ix, v) {
				continue
			}
			if d := planar.Distance(cur.Center(), s.Center); d < bestDist {
				bestSlot, bestCand, bestDist = k, cand, d
			}
		}
		if bestCand == nil {
			leftovers = append(leftovers, cur)
			continue
		}
		used[bestSlot] = true
		v.Items[mi] = bestCand
		ix.Insert(bestCand)
		placed++
	}
	for _, m := range leftovers {
		if ix.Collides(m.ID, m.BufferedPolygon()) {
			return nil, 0
		}
		ix.Insert(m)
	}
	if placed == 0 {
		return nil, 0
	}
	return v, placed
}

// claimedElsewhere reports whether chair is closer to another group anchor
// than to anchor.
func (e *Engine) claimedElsewhere(chair, anchor *model.Furniture, l *model.Layout) bool {
	d := planar.Distance(chair.Center(), anchor.Center())
	for _, g := range l.Items {
		if g.ID == anchor.ID {
			continue
		}
		if rule, ok := e.rules.Rule(g.Type); ok && rule.ChairCount > 0 {
			if planar.Distance(chair.Center(), g.Center()) < d {
				return true
			}
		}
	}
	return false
}
