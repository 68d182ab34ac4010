package placement

import (
	"sort"

	"github.com/paulmach/orb"
)

// freeSpace tracks the axis-aligned rectangles of the room that are not
// covered by a door keep-out or an already placed item.
type freeSpace struct {
	rects []rect
}

type rect struct {
	x, y, w, h float64
}

func rectFromBound(b orb.Bound) rect {
	return rect{x: b.Min[0], y: b.Min[1], w: b.Max[0] - b.Min[0], h: b.Max[1] - b.Min[1]}
}

func newFreeSpace(room orb.Bound) *freeSpace {
	return &freeSpace{rects: []rect{rectFromBound(room)}}
}

// exclude removes b from the free space. Free rects that overlap b are split
// into the maximal strips around it.
func (fs *freeSpace) exclude(b orb.Bound) {
	sub := rectFromBound(b)
	var next []rect
	for _, r := range fs.rects {
		next = append(next, subtractRect(r, sub)...)
	}
	fs.rects = pruneContained(next)
}

// fits returns the lower-left corners of every free rect that can hold a
// w x h box, tightest fit first.
func (fs *freeSpace) fits(w, h float64) []orb.Point {
	type fit struct {
		at   orb.Point
		area float64
	}
	var out []fit
	for _, r := range fs.rects {
		if w <= r.w+0.001 && h <= r.h+0.001 {
			out = append(out, fit{orb.Point{r.x, r.y}, r.w*r.h - w*h})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].area < out[j].area })
	pts := make([]orb.Point, len(out))
	for i, f := range out {
		pts[i] = f.at
	}
	return pts
}

// subtractRect returns the maximal rectangles of base not covered by sub.
func subtractRect(base, sub rect) []rect {
	if !rectsOverlap(base, sub) {
		return []rect{base}
	}
	var out []rect
	if sub.x > base.x+0.001 {
		out = append(out, rect{x: base.x, y: base.y, w: sub.x - base.x, h: base.h})
	}
	if sub.x+sub.w < base.x+base.w-0.001 {
		out = append(out, rect{x: sub.x + sub.w, y: base.y, w: base.x + base.w - (sub.x + sub.w), h: base.h})
	}
	if sub.y > base.y+0.001 {
		out = append(out, rect{x: base.x, y: base.y, w: base.w, h: sub.y - base.y})
	}
	if sub.y+sub.h < base.y+base.h-0.001 {
		out = append(out, rect{x: base.x, y: sub.y + sub.h, w: base.w, h: base.y + base.h - (sub.y + sub.h)})
	}
	return out
}

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w-0.001 && a.x+a.w > b.x+0.001 &&
		a.y < b.y+b.h-0.001 && a.y+a.h > b.y+0.001
}

// pruneContained removes any rect that is fully contained within another.
func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			// identical rects: keep the first
			if containsRect(a, b) && j > i {
				continue
			}
			contained = true
			break
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x+0.001 && outer.y <= inner.y+0.001 &&
		outer.x+outer.w >= inner.x+inner.w-0.001 &&
		outer.y+outer.h >= inner.y+inner.h-0.001
}
