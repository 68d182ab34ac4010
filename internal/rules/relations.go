package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// NearSatisfied reports whether f has an acceptable neighbour within its
// must-near distance. Items without a must-near rule are satisfied.
func (e *Engine) NearSatisfied(f *model.Furniture, l *model.Layout) bool {
	if len(f.MustNear) == 0 {
		return true
	}
	near := e.rules.NearDistance(f.Type)
	buf := f.BufferedPolygon()
	for _, g := range l.Items {
		if g.ID == f.ID || !f.Requires(g.Type) {
			continue
		}
		if geom.Distance(buf, g.BufferedPolygon()) <= near+geom.Eps {
			return true
		}
	}
	return false
}

// FacingTarget returns the nearest item of f's facing target type, or nil
// when f has no facing rule or no target exists.
func FacingTarget(f *model.Furniture, l *model.Layout) *model.Furniture {
	if f.Facing == nil {
		return nil
	}
	return nearestOfTypes(f, l, []model.FurnitureType{f.Facing.Target})
}

// FacingSatisfied reports whether f points at its facing target within the
// threshold. Items without a rule or without a target present are satisfied.
func (e *Engine) FacingSatisfied(f *model.Furniture, l *model.Layout) bool {
	t := FacingTarget(f, l)
	if t == nil {
		return true
	}
	return geom.AngleDiff(f.Rotation, geom.Heading(f.Center(), t.Center())) <= f.Facing.Threshold+1e-6
}

// RelationStats counts the relational rules that apply to l and how many of
// them hold. A facing rule only applies when its target type is present.
func (e *Engine) RelationStats(l *model.Layout) (satisfied, total int) {
	for _, f := range l.Items {
		if len(f.MustNear) > 0 {
			total++
			if e.NearSatisfied(f, l) {
				satisfied++
			}
		}
		if FacingTarget(f, l) != nil {
			total++
			if e.FacingSatisfied(f, l) {
				satisfied++
			}
		}
	}
	return satisfied, total
}

// Violations counts unmet relational rules.
func (e *Engine) Violations(l *model.Layout) int {
	s, t := e.RelationStats(l)
	return t - s
}

// nearestOfTypes returns the item closest to f (by center distance, ties by
// id) whose type is in types.
func nearestOfTypes(f *model.Furniture, l *model.Layout, types []model.FurnitureType) *model.Furniture {
	cands := candidatesOfTypes(f, l, types)
	if len(cands) == 0 {
		return nil
	}
	return cands[0]
}

func candidatesOfTypes(f *model.Furniture, l *model.Layout, types []model.FurnitureType) []*model.Furniture {
	var out []*model.Furniture
	for _, g := range l.Items {
		if g.ID == f.ID {
			continue
		}
		for _, t := range types {
			if g.Type == t {
				out = append(out, g)
				break
			}
		}
	}
	c := f.Center()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := planar.Distance(c, out[i].Center()), planar.Distance(c, out[j].Center())
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RepairRelations fixes facing and must-near rules, sweeping until nothing
// changes or MaxSweeps is reached. Facing runs first so neighbours are placed
// around an item's final orientation. An item with an unmet must-near rule is
// re-homed next to the nearest acceptable neighbour; when no acceptable
// neighbour exists, a default instance of the first acceptable type is
// synthesized next to the item. Unrepairable relations are left for scoring.
func (e *Engine) RepairRelations(l *model.Layout) Report {
	var rep Report
	for sweep := 0; sweep < MaxSweeps; sweep++ {
		var r Report
		e.repairFacing(l, &r)
		e.repairNear(l, &r)
		rep.merge(r)
		if !r.Changed() {
			break
		}
	}
	return rep
}

func (e *Engine) repairFacing(l *model.Layout, rep *Report) {
	ix := collision.Build(e.room.Bound(), l)
	for i, f := range l.Items {
		t := FacingTarget(f, l)
		if t == nil || e.FacingSatisfied(f, l) {
			continue
		}
		heading := geom.Heading(f.Center(), t.Center())
		slack := 0.9 * f.Facing.Threshold
		for _, deg := range []float64{heading, heading - slack, heading + slack} {
			cand := f.Clone()
			cand.SetRotation(deg)
			if e.placeable(cand, ix, l) {
				l.Items[i] = cand
				ix.Update(cand)
				rep.Rotated = append(rep.Rotated, f.ID)
				break
			}
		}
	}
}

func (e *Engine) repairNear(l *model.Layout, rep *Report) {
	ix := collision.Build(e.room.Bound(), l)
	for i := 0; i < len(l.Items); i++ {
		f := l.Items[i]
		if e.NearSatisfied(f, l) {
			continue
		}
		near := e.rules.NearDistance(f.Type)
		targets := candidatesOfTypes(f, l, f.MustNear)

		if !e.fixed(f.ID) {
			homed := false
			for _, t := range targets {
				if cand := e.placeNear(f, t, near, e.room.Center(), ix, l); cand != nil {
					l.Items[i] = cand
					ix.Update(cand)
					rep.Moved = append(rep.Moved, f.ID)
					homed = true
					break
				}
			}
			if homed {
				continue
			}
		}
		if len(targets) > 0 {
			continue
		}
		if s := e.synthesize(f, l, ix); s != nil {
			l.Add(s)
			ix.Insert(s)
			rep.Synthesized = append(rep.Synthesized, s.ID)
		}
	}
}

// synthesize creates a default instance of the first acceptable must-near
// type that fits next to f.
func (e *Engine) synthesize(f *model.Furniture, l *model.Layout, ix *collision.Index) *model.Furniture {
	for _, t := range f.MustNear {
		s, err := e.rules.NewItem(t)
		if err != nil {
			e.log.Warn("cannot synthesize neighbour", "for", f.ID, "err", err)
			continue
		}
		s.ID = e.freshID(l, fmt.Sprintf("%s-%s", f.ID, t))
		s.SetCenter(f.Center())
		if cand := e.placeNear(s, f, e.rules.NearDistance(s.Type), e.room.Center(), ix, l); cand != nil {
			return cand
		}
	}
	return nil
}

// freshID returns base, or base-2, base-3, ... whichever is unused in l.
func (e *Engine) freshID(l *model.Layout, base string) string {
	id := base
	for n := 2; l.Find(id) != nil; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// placeNear looks for a pose of f next to target such that their buffered
// polygons are within near of each other and f is placeable. Directions are
// tried fanning out from the side of target that faces f's current center
// (or ref when they coincide); along each direction f is placed just far
// enough for the projections of both buffered polygons to separate. f keeps
// its rotation.
func (e *Engine) placeNear(f, target *model.Furniture, near float64, ref orb.Point, ix *collision.Index, l *model.Layout) *model.Furniture {
	tc := target.Center()
	tb := target.BufferedPolygon()
	fb := f.BufferedPolygon()
	fc := f.Center()

	toward := f.Center()
	if planar.Distance(toward, tc) < geom.Eps {
		toward = ref
	}
	base := geom.Heading(tc, toward)
	step := 360.0 / directions

	for k := 0; k < directions; k++ {
		off := float64((k+1)/2) * step
		if k%2 == 1 {
			off = -off
		}
		rad := (base + off) * math.Pi / 180
		ux, uy := math.Cos(rad), math.Sin(rad)

		hiT := math.Inf(-1)
		for _, p := range tb {
			hiT = math.Max(hiT, (p[0]-tc[0])*ux+(p[1]-tc[1])*uy)
		}
		loF := math.Inf(1)
		for _, p := range fb {
			loF = math.Min(loF, (p[0]-fc[0])*ux+(p[1]-fc[1])*uy)
		}
		s := hiT - loF + placeGap

		cand := f.Clone()
		cand.SetCenter(orb.Point{tc[0] + ux*s, tc[1] + uy*s})
		if geom.Distance(cand.BufferedPolygon(), tb) > near {
			continue
		}
		if e.placeable(cand, ix, l) {
			return cand
		}
	}
	return nil
}
