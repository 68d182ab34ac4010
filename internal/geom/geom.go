// Package geom holds the planar geometry used by the layout engine: oriented
// rectangles, clearance buffers and exact convex polygon tests on top of
// github.com/paulmach/orb.
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Eps is the tolerance used for containment and overlap tests. Polygons that
// only touch along an edge or at a vertex do not intersect.
const Eps = 1e-9

// ErrDegenerate is returned for polygons with too few vertices, non-finite
// coordinates or zero area.
var ErrDegenerate = errors.New("degenerate polygon")

// Rect returns the closed axis-aligned ring for the rectangle with lower-left
// corner (x, y), in counter-clockwise order.
func Rect(x, y, w, h float64) orb.Ring {
	return orb.Ring{
		{x, y},
		{x + w, y},
		{x + w, y + h},
		{x, y + h},
		{x, y},
	}
}

// RotatedRect returns the rectangle with lower-left corner (x, y) rotated by
// deg degrees counter-clockwise about its own center.
func RotatedRect(x, y, w, h, deg float64) orb.Ring {
	ring := Rect(x, y, w, h)
	if NormalizeAngle(deg) == 0 {
		return ring
	}
	return Rotate(ring, orb.Point{x + w/2, y + h/2}, deg)
}

// Rotate rotates every vertex of r by deg degrees about c.
func Rotate(r orb.Ring, c orb.Point, deg float64) orb.Ring {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	out := make(orb.Ring, len(r))
	for i, p := range r {
		dx, dy := p[0]-c[0], p[1]-c[1]
		out[i] = orb.Point{c[0] + dx*cos - dy*sin, c[1] + dx*sin + dy*cos}
	}
	return out
}

// Translate shifts every vertex of r by (dx, dy).
func Translate(r orb.Ring, dx, dy float64) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = orb.Point{p[0] + dx, p[1] + dy}
	}
	return out
}

// Buffer expands the convex ring r outward by d, approximating each rounded
// corner with arc points. segs is the number of segments per quarter circle.
func Buffer(r orb.Ring, d float64, segs int) orb.Ring {
	pts := vertices(r)
	if d <= 0 || len(pts) < 3 {
		return closeRing(pts)
	}
	if segs < 1 {
		segs = 1
	}
	if signedArea(pts) < 0 {
		reverse(pts)
	}

	n := len(pts)
	out := make(orb.Ring, 0, n*(segs+2)+1)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		cur := pts[i]
		next := pts[(i+1)%n]

		a0 := outwardNormalAngle(prev, cur)
		a1 := outwardNormalAngle(cur, next)
		for a1 < a0 {
			a1 += 2 * math.Pi
		}
		sweep := a1 - a0
		steps := int(math.Ceil(sweep / (math.Pi / 2) * float64(segs)))
		if steps < 1 {
			steps = 1
		}
		for s := 0; s <= steps; s++ {
			a := a0 + sweep*float64(s)/float64(steps)
			out = append(out, orb.Point{cur[0] + d*math.Cos(a), cur[1] + d*math.Sin(a)})
		}
	}
	return closeRing(dedupe(out))
}

// Intersects reports whether the interiors of two convex rings overlap.
func Intersects(a, b orb.Ring) bool {
	pa, pb := vertices(a), vertices(b)
	if len(pa) < 3 || len(pb) < 3 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	return !separated(pa, pb) && !separated(pb, pa)
}

// separated reports whether one of the edge normals of p is a separating axis.
func separated(p, q []orb.Point) bool {
	n := len(p)
	for i := 0; i < n; i++ {
		e0, e1 := p[i], p[(i+1)%n]
		ax, ay := -(e1[1] - e0[1]), e1[0]-e0[0]
		l := math.Hypot(ax, ay)
		if l == 0 {
			continue
		}
		ax, ay = ax/l, ay/l
		minP, maxP := project(p, ax, ay)
		minQ, maxQ := project(q, ax, ay)
		if maxP <= minQ+Eps || maxQ <= minP+Eps {
			return true
		}
	}
	return false
}

func project(p []orb.Point, ax, ay float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p {
		d := v[0]*ax + v[1]*ay
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// Distance returns the minimum distance between two convex rings, zero when
// they intersect or touch.
func Distance(a, b orb.Ring) float64 {
	pa, pb := vertices(a), vertices(b)
	if len(pa) == 0 || len(pb) == 0 {
		return math.Inf(1)
	}
	if Intersects(a, b) {
		return 0
	}
	best := math.Inf(1)
	for _, p := range pa {
		best = math.Min(best, pointRingDistance(p, pb))
	}
	for _, p := range pb {
		best = math.Min(best, pointRingDistance(p, pa))
	}
	return best
}

func pointRingDistance(p orb.Point, ring []orb.Point) float64 {
	best := math.Inf(1)
	n := len(ring)
	for i := 0; i < n; i++ {
		best = math.Min(best, planar.DistanceFromSegment(ring[i], ring[(i+1)%n], p))
	}
	return best
}

// Within reports whether every vertex of r lies inside b, allowing Eps slack.
func Within(r orb.Ring, b orb.Bound) bool {
	for _, p := range r {
		if p[0] < b.Min[0]-Eps || p[0] > b.Max[0]+Eps || p[1] < b.Min[1]-Eps || p[1] > b.Max[1]+Eps {
			return false
		}
	}
	return len(r) > 0
}

// Area returns the unsigned area of r.
func Area(r orb.Ring) float64 {
	return math.Abs(signedArea(vertices(r)))
}

// Centroid returns the area centroid of r.
func Centroid(r orb.Ring) orb.Point {
	c, _ := planar.CentroidArea(closeRing(vertices(r)))
	return c
}

// Validate checks that r describes a usable polygon.
func Validate(r orb.Ring) error {
	pts := vertices(r)
	if len(pts) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrDegenerate, len(pts))
	}
	for _, p := range pts {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("%w: non-finite vertex %v", ErrDegenerate, p)
		}
	}
	if math.Abs(signedArea(pts)) <= Eps {
		return fmt.Errorf("%w: zero area", ErrDegenerate)
	}
	return nil
}

// NormalizeAngle maps deg into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleDiff returns the smallest absolute difference between two headings,
// in [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Heading returns the direction from a to b in degrees, normalized.
func Heading(a, b orb.Point) float64 {
	return NormalizeAngle(math.Atan2(b[1]-a[1], b[0]-a[0]) * 180 / math.Pi)
}

// vertices returns the distinct vertices of r without the closing point.
func vertices(r orb.Ring) []orb.Point {
	pts := make([]orb.Point, len(r))
	copy(pts, r)
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func closeRing(pts []orb.Point) orb.Ring {
	out := make(orb.Ring, len(pts), len(pts)+1)
	copy(out, pts)
	if len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}

func dedupe(r orb.Ring) orb.Ring {
	out := r[:0]
	for i, p := range r {
		if i > 0 && math.Abs(p[0]-out[len(out)-1][0]) < Eps && math.Abs(p[1]-out[len(out)-1][1]) < Eps {
			continue
		}
		out = append(out, p)
	}
	return out
}

func signedArea(pts []orb.Point) float64 {
	var s float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return s / 2
}

func reverse(pts []orb.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// outwardNormalAngle is the angle of the outward normal of edge a->b on a
// counter-clockwise ring.
func outwardNormalAngle(a, b orb.Point) float64 {
	return math.Atan2(-(b[0] - a[0]), b[1]-a[1])
}
