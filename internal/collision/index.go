// Package collision indexes buffered furniture polygons for fast overlap and
// neighbour queries.
package collision

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// entry is one indexed polygon. The quadtree stores point data, so entries are
// keyed by their bound center and queries widen the search box by the largest
// half extent in the index.
type entry struct {
	id    string
	ring  orb.Ring
	bound orb.Bound
}

func (e *entry) Point() orb.Point {
	return e.bound.Center()
}

// Index is a spatial index over buffered polygons. It belongs to a single
// goroutine; workers build their own.
type Index struct {
	bound    orb.Bound
	tree     *quadtree.Quadtree
	entries  map[string]*entry
	overflow map[string]*entry // centers outside the tree bound
	halfW    float64
	halfH    float64
}

// New creates an empty index covering bound.
func New(bound orb.Bound) *Index {
	ix := &Index{bound: bound}
	ix.reset()
	return ix
}

// Build creates an index over every item of l.
func Build(bound orb.Bound, l *model.Layout) *Index {
	ix := New(bound)
	ix.Rebuild(l)
	return ix
}

func (ix *Index) reset() {
	ix.tree = quadtree.New(ix.bound)
	ix.entries = make(map[string]*entry)
	ix.overflow = make(map[string]*entry)
	ix.halfW, ix.halfH = 0, 0
}

// Rebuild discards the index contents and indexes l from scratch.
func (ix *Index) Rebuild(l *model.Layout) {
	ix.reset()
	for _, f := range l.Items {
		ix.Insert(f)
	}
}

// Insert indexes f's buffered polygon.
func (ix *Index) Insert(f *model.Furniture) {
	ix.InsertRing(f.ID, f.BufferedPolygon())
}

// InsertRing indexes ring under id, replacing any previous entry.
func (ix *Index) InsertRing(id string, ring orb.Ring) {
	ix.Remove(id)
	e := &entry{id: id, ring: ring, bound: ring.Bound()}
	ix.halfW = math.Max(ix.halfW, (e.bound.Max[0]-e.bound.Min[0])/2)
	ix.halfH = math.Max(ix.halfH, (e.bound.Max[1]-e.bound.Min[1])/2)
	ix.entries[id] = e
	if err := ix.tree.Add(e); err != nil {
		ix.overflow[id] = e
	}
}

// Update re-indexes f after a single move.
func (ix *Index) Update(f *model.Furniture) {
	ix.Insert(f)
}

// Remove drops id from the index. Returns true if it was indexed.
func (ix *Index) Remove(id string) bool {
	e, ok := ix.entries[id]
	if !ok {
		return false
	}
	delete(ix.entries, id)
	if _, over := ix.overflow[id]; over {
		delete(ix.overflow, id)
		return true
	}
	ix.tree.Remove(e, func(p orb.Pointer) bool {
		return p.(*entry).id == id
	})
	return true
}

// Len returns the number of indexed polygons.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Ring returns the indexed polygon for id.
func (ix *Index) Ring(id string) (orb.Ring, bool) {
	e, ok := ix.entries[id]
	if !ok {
		return nil, false
	}
	return e.ring, true
}

// candidates returns entries whose bound may overlap b.
func (ix *Index) candidates(b orb.Bound) []*entry {
	search := orb.Bound{
		Min: orb.Point{b.Min[0] - ix.halfW, b.Min[1] - ix.halfH},
		Max: orb.Point{b.Max[0] + ix.halfW, b.Max[1] + ix.halfH},
	}
	var out []*entry
	for _, p := range ix.tree.InBound(nil, search) {
		e := p.(*entry)
		if e.bound.Intersects(b) {
			out = append(out, e)
		}
	}
	for _, e := range ix.overflow {
		if e.bound.Intersects(b) {
			out = append(out, e)
		}
	}
	return out
}

// Colliding returns the ids, other than id, whose polygons intersect ring,
// in lexical order.
func (ix *Index) Colliding(id string, ring orb.Ring) []string {
	var hits []string
	for _, e := range ix.candidates(ring.Bound()) {
		if e.id == id {
			continue
		}
		if geom.Intersects(ring, e.ring) {
			hits = append(hits, e.id)
		}
	}
	sort.Strings(hits)
	return hits
}

// Collides reports whether ring intersects any indexed polygon belonging to
// an item other than id.
func (ix *Index) Collides(id string, ring orb.Ring) bool {
	for _, e := range ix.candidates(ring.Bound()) {
		if e.id != id && geom.Intersects(ring, e.ring) {
			return true
		}
	}
	return false
}

// Within returns the ids whose polygons are within dist of ring, excluding
// id, in lexical order.
func (ix *Index) Within(id string, ring orb.Ring, dist float64) []string {
	var out []string
	for _, e := range ix.candidates(ring.Bound().Pad(dist)) {
		if e.id != id && geom.Distance(ring, e.ring) <= dist+geom.Eps {
			out = append(out, e.id)
		}
	}
	sort.Strings(out)
	return out
}

// Nearest returns up to k ids ordered by the distance between p and their
// polygon centers. accept, when non-nil, filters candidates.
func (ix *Index) Nearest(p orb.Point, k int, accept func(id string) bool) []string {
	if k <= 0 {
		return nil
	}
	match := func(ptr orb.Pointer) bool {
		return accept == nil || accept(ptr.(*entry).id)
	}
	found := ix.tree.KNearestMatching(nil, p, k, match)
	for _, e := range ix.overflow {
		if match(e) {
			found = append(found, e)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		di := planar.DistanceSquared(p, found[i].Point())
		dj := planar.DistanceSquared(p, found[j].Point())
		if di != dj {
			return di < dj
		}
		return found[i].(*entry).id < found[j].(*entry).id
	})
	if len(found) > k {
		found = found[:k]
	}
	ids := make([]string, len(found))
	for i, e := range found {
		ids[i] = e.(*entry).id
	}
	return ids
}
