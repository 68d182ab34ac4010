// Package pathfind checks walking access through a room on an occupancy grid.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// Scores added per door by DoorAccessibility.
const (
	ReachableScore = 10.0
	BlockedPenalty = -20.0
)

// SnapRadius is how many cells an endpoint may move to reach a free cell.
const SnapRadius = 2

type cell struct {
	c, r int
}

type query struct {
	from, to cell
}

type result struct {
	path []cell
	ok   bool
}

// Pathfinder runs 4-connected A* on a grid over the room. Results are cached
// per (start, end) cell pair until Update is called with a new layout. A
// Pathfinder is not safe for concurrent use.
type Pathfinder struct {
	room    model.Room
	res     float64
	cols    int
	rows    int
	blocked []bool
	cache   map[query]result
}

// New creates a pathfinder with an empty grid. res is the cell size.
func New(room model.Room, res float64) *Pathfinder {
	if res <= 0 {
		res = 0.5
	}
	p := &Pathfinder{
		room: room,
		res:  res,
		cols: int(math.Ceil(room.Width/res - geom.Eps)),
		rows: int(math.Ceil(room.Height/res - geom.Eps)),
	}
	if p.cols < 1 {
		p.cols = 1
	}
	if p.rows < 1 {
		p.rows = 1
	}
	p.blocked = make([]bool, p.cols*p.rows)
	p.cache = make(map[query]result)
	return p
}

// Update marks every cell overlapping a buffered polygon of l as blocked and
// drops cached paths.
func (p *Pathfinder) Update(l *model.Layout) {
	for i := range p.blocked {
		p.blocked[i] = false
	}
	for _, f := range l.Items {
		poly := f.BufferedPolygon()
		b := poly.Bound()
		c0, r0 := p.cellOf(b.Min)
		c1, r1 := p.cellOf(b.Max)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				if p.blocked[r*p.cols+c] {
					continue
				}
				if geom.Intersects(p.cellRing(c, r), poly) {
					p.blocked[r*p.cols+c] = true
				}
			}
		}
	}
	p.cache = make(map[query]result)
}

// Size returns the grid dimensions in cells.
func (p *Pathfinder) Size() (cols, rows int) {
	return p.cols, p.rows
}

// BlockedAt reports whether the cell containing pt is blocked.
func (p *Pathfinder) BlockedAt(pt orb.Point) bool {
	c, r := p.cellOf(pt)
	return p.blocked[r*p.cols+c]
}

// FreeFraction returns the share of cells not covered by furniture.
func (p *Pathfinder) FreeFraction() float64 {
	free := 0
	for _, b := range p.blocked {
		if !b {
			free++
		}
	}
	return float64(free) / float64(len(p.blocked))
}

func (p *Pathfinder) cellOf(pt orb.Point) (int, int) {
	c := int(math.Floor(pt[0] / p.res))
	r := int(math.Floor(pt[1] / p.res))
	return clamp(c, 0, p.cols-1), clamp(r, 0, p.rows-1)
}

func (p *Pathfinder) cellRing(c, r int) orb.Ring {
	x, y := float64(c)*p.res, float64(r)*p.res
	return geom.Rect(x, y, math.Min(p.res, p.room.Width-x), math.Min(p.res, p.room.Height-y))
}

func (p *Pathfinder) cellCenter(c cell) orb.Point {
	return orb.Point{(float64(c.c) + 0.5) * p.res, (float64(c.r) + 0.5) * p.res}
}

func (p *Pathfinder) free(c cell) bool {
	return c.c >= 0 && c.r >= 0 && c.c < p.cols && c.r < p.rows && !p.blocked[c.r*p.cols+c.c]
}

// snap returns the nearest free cell within SnapRadius steps, breadth first.
func (p *Pathfinder) snap(start cell) (cell, bool) {
	if p.free(start) {
		return start, true
	}
	seen := map[cell]bool{start: true}
	frontier := []cell{start}
	for depth := 0; depth < SnapRadius; depth++ {
		var next []cell
		for _, cur := range frontier {
			for _, n := range neighbours(cur) {
				if seen[n] || n.c < 0 || n.r < 0 || n.c >= p.cols || n.r >= p.rows {
					continue
				}
				if p.free(n) {
					return n, true
				}
				seen[n] = true
				next = append(next, n)
			}
		}
		frontier = next
	}
	return start, false
}

// Path returns the cell-center waypoints of a shortest 4-connected path from
// one point to another, and whether one exists.
func (p *Pathfinder) Path(from, to orb.Point) ([]orb.Point, bool) {
	fc, fr := p.cellOf(from)
	tc, tr := p.cellOf(to)
	q := query{from: cell{fc, fr}, to: cell{tc, tr}}
	res, ok := p.cache[q]
	if !ok {
		res = p.search(q.from, q.to)
		p.cache[q] = res
	}
	if !res.ok {
		return nil, false
	}
	pts := make([]orb.Point, len(res.path))
	for i, c := range res.path {
		pts[i] = p.cellCenter(c)
	}
	return pts, true
}

// Reachable reports whether a path exists between two points.
func (p *Pathfinder) Reachable(from, to orb.Point) bool {
	_, ok := p.Path(from, to)
	return ok
}

// DoorAccessibility scores every door: ReachableScore when the room center
// can be reached from the door, BlockedPenalty otherwise.
func (p *Pathfinder) DoorAccessibility() float64 {
	score := 0.0
	for _, d := range p.room.Doors {
		if p.Reachable(d.Center(), p.room.Center()) {
			score += ReachableScore
		} else {
			score += BlockedPenalty
		}
	}
	return score
}

func (p *Pathfinder) search(from, to cell) result {
	start, ok := p.snap(from)
	if !ok {
		return result{}
	}
	goal, ok := p.snap(to)
	if !ok {
		return result{}
	}
	if start == goal {
		return result{path: []cell{start}, ok: true}
	}

	g := map[cell]int{start: 0}
	parent := map[cell]cell{}
	closed := map[cell]bool{}
	open := &nodeHeap{}
	seq := 0
	heap.Push(open, &node{c: start, f: manhattan(start, goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.c] {
			continue
		}
		if cur.c == goal {
			return result{path: reconstruct(parent, start, goal), ok: true}
		}
		closed[cur.c] = true
		for _, n := range neighbours(cur.c) {
			if !p.free(n) || closed[n] {
				continue
			}
			ng := g[cur.c] + 1
			if old, seen := g[n]; seen && old <= ng {
				continue
			}
			g[n] = ng
			parent[n] = cur.c
			seq++
			heap.Push(open, &node{c: n, g: ng, f: ng + manhattan(n, goal), seq: seq})
		}
	}
	return result{}
}

func reconstruct(parent map[cell]cell, start, goal cell) []cell {
	path := []cell{goal}
	for c := goal; c != start; {
		c = parent[c]
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func neighbours(c cell) [4]cell {
	return [4]cell{{c.c + 1, c.r}, {c.c - 1, c.r}, {c.c, c.r + 1}, {c.c, c.r - 1}}
}

func manhattan(a, b cell) int {
	return abs(a.c-b.c) + abs(a.r-b.r)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type node struct {
	c   cell
	g   int
	f   int
	seq int
}

// nodeHeap orders by f, then g descending, then insertion order so that
// searches are deterministic.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
