package rules

import (
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// FixCollisions keeps items in priority order (fixed items first, then layout
// order). An item outside the room is shifted back in; an item that collides
// with one already kept is nudged away from it, and removed when no nudge
// works. l is modified in place.
func (e *Engine) FixCollisions(l *model.Layout) Report {
	var rep Report
	order := make([]*model.Furniture, 0, len(l.Items))
	for _, f := range l.Items {
		if e.fixed(f.ID) {
			order = append(order, f)
		}
	}
	for _, f := range l.Items {
		if !e.fixed(f.ID) {
			order = append(order, f)
		}
	}

	ix := collision.New(e.room.Bound())
	dropped := make(map[string]bool)
	for _, f := range order {
		if err := f.Validate(); err != nil {
			e.log.Debug("dropping invalid item", "id", f.ID, "err", err)
			dropped[f.ID] = true
			continue
		}
		if !e.room.Contains(f.BufferedPolygon()) {
			if !e.clampInside(f) {
				e.log.Debug("dropping item larger than room", "id", f.ID)
				dropped[f.ID] = true
				continue
			}
			rep.Moved = append(rep.Moved, f.ID)
		}
		hits := ix.Colliding(f.ID, f.BufferedPolygon())
		if len(hits) > 0 {
			other, _ := ix.Ring(hits[0])
			if !e.displace(f, geom.Centroid(other), ix) {
				e.log.Debug("dropping colliding item", "id", f.ID, "with", hits[0])
				dropped[f.ID] = true
				continue
			}
			rep.Moved = append(rep.Moved, f.ID)
		}
		ix.Insert(f)
	}

	if len(dropped) > 0 {
		kept := l.Items[:0]
		for _, f := range l.Items {
			if dropped[f.ID] {
				rep.Removed = append(rep.Removed, f.ID)
				continue
			}
			kept = append(kept, f)
		}
		l.Items = kept
	}
	return rep
}

// displace nudges f away from p until it fits in the room without colliding
// with anything in ix.
func (e *Engine) displace(f *model.Furniture, p orb.Point, ix *collision.Index) bool {
	ux, uy := e.away(p, f.Center())
	x0, y0 := f.X, f.Y
	for k := 1; k <= MaxNudges; k++ {
		step := float64(k) * NudgeStep
		f.SetPosition(x0+ux*step, y0+uy*step)
		buf := f.BufferedPolygon()
		if e.room.Contains(buf) && !ix.Collides(f.ID, buf) {
			return true
		}
	}
	f.SetPosition(x0, y0)
	return false
}

// nudge tries k*NudgeStep moves of f along (ux, uy) for k = 1..MaxNudges and
// returns the first candidate accepted by ok.
func (e *Engine) nudge(f *model.Furniture, ux, uy float64, ok func(*model.Furniture) bool) *model.Furniture {
	for k := 1; k <= MaxNudges; k++ {
		step := float64(k) * NudgeStep
		cand := f.Clone()
		cand.MoveBy(ux*step, uy*step)
		if ok(cand) {
			return cand
		}
	}
	return nil
}

// FixDoorClearance moves every item whose buffered polygon enters a door
// keep-out zone away from the zone centroid, in growing steps. Items that
// cannot be moved clear are removed. Fixed items stay put.
func (e *Engine) FixDoorClearance(l *model.Layout) Report {
	var rep Report
	if len(e.room.Doors) == 0 {
		return rep
	}
	ix := collision.Build(e.room.Bound(), l)
	for i := 0; i < len(l.Items); i++ {
		f := l.Items[i]
		if e.fixed(f.ID) {
			continue
		}
		zone, hit := e.firstDoorZone(f)
		if !hit {
			continue
		}
		ux, uy := e.away(geom.Centroid(zone), f.Center())
		moved := e.nudge(f, ux, uy, func(c *model.Furniture) bool {
			return e.placeable(c, ix, l)
		})
		if moved == nil {
			e.log.Debug("dropping item blocking door", "id", f.ID)
			ix.Remove(f.ID)
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			i--
			rep.Removed = append(rep.Removed, f.ID)
			continue
		}
		l.Items[i] = moved
		ix.Update(moved)
		rep.Moved = append(rep.Moved, f.ID)
	}
	return rep
}

func (e *Engine) firstDoorZone(f *model.Furniture) (orb.Ring, bool) {
	buf := f.BufferedPolygon()
	for _, z := range e.doorZones[f.Type] {
		if geom.Intersects(buf, z) {
			return z, true
		}
	}
	return nil, false
}

// FixPairClearance separates pairs whose footprints are closer than the
// pair's minimum distance. The later item of the pair is nudged away (the
// earlier one when the later is fixed); every accepted nudge strictly
// increases the pair distance, and an item that cannot be separated within
// MaxNudges is removed.
func (e *Engine) FixPairClearance(l *model.Layout) Report {
	var rep Report
	if len(e.rules.Pairs) == 0 {
		return rep
	}
	ix := collision.Build(e.room.Bound(), l)
	for i := 0; i < len(l.Items); i++ {
		for j := i + 1; j < len(l.Items); j++ {
			a, b := l.Items[i], l.Items[j]
			req := e.rules.PairClearance(a.Type, b.Type)
			if req <= 0 {
				continue
			}
			d := geom.Distance(a.Polygon(), b.Polygon())
			if d >= req-geom.Eps {
				continue
			}
			moveIdx, anchor := j, a
			if e.fixed(b.ID) {
				if e.fixed(a.ID) {
					continue
				}
				moveIdx, anchor = i, b
			}
			f := l.Items[moveIdx]
			ux, uy := e.away(anchor.Center(), f.Center())
			moved := e.nudge(f, ux, uy, func(c *model.Furniture) bool {
				return geom.Distance(c.Polygon(), anchor.Polygon()) > d && e.placeable(c, ix, l)
			})
			if moved == nil {
				e.log.Debug("dropping item violating pair clearance", "id", f.ID, "other", anchor.ID)
				ix.Remove(f.ID)
				l.Items = append(l.Items[:moveIdx], l.Items[moveIdx+1:]...)
				rep.Removed = append(rep.Removed, f.ID)
				if moveIdx == i {
					i--
					break
				}
				j--
				continue
			}
			l.Items[moveIdx] = moved
			ix.Update(moved)
			rep.Moved = append(rep.Moved, f.ID)
			if moveIdx == i {
				// a moved; recheck its pairs from the start
				j = i
			}
		}
	}
	return rep
}
