// Package rules validates and repairs layouts against the furniture rule
// table: hard fixes (collisions, door zones, pair clearances), relational
// repair (must-near, facing) and a score-guided soft alignment pass.
package rules

import (
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

// Repair bounds.
const (
	NudgeStep  = 0.3 // metres per nudge step; step k moves k*NudgeStep
	MaxNudges  = 10
	MaxSweeps  = 5 // relational repair sweeps
	maxPasses  = 8 // whole-pipeline passes looking for a fixpoint
	placeGap   = 0.05
	directions = 24
)

// ScoreFunc scores a layout; higher is better. The soft pass keeps a variant
// only when it scores strictly higher.
type ScoreFunc func(*model.Layout) float64

// Options configures an Engine.
type Options struct {
	Constraints *model.ConstraintSet
	Score       ScoreFunc // nil disables the soft pass
	SoftRounds  int       // default 5
	Logger      *log.Logger
	// Stats, when set, collects the per-step counters of every Apply.
	Stats *Stats
}

// Engine applies the rule table to layouts. It holds no mutable state and may
// be shared between goroutines.
type Engine struct {
	room      model.Room
	rules     *model.RuleTable
	opts      Options
	doorZones map[model.FurnitureType][]orb.Ring
	log       *log.Logger
}

// New creates an engine for room.
func New(room model.Room, rules *model.RuleTable, opts Options) *Engine {
	if opts.SoftRounds <= 0 {
		opts.SoftRounds = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Engine{
		room:      room,
		rules:     rules,
		opts:      opts,
		doorZones: make(map[model.FurnitureType][]orb.Ring),
		log:       logger,
	}
	for _, t := range model.AllTypes {
		d := rules.DoorDistance(t)
		zones := make([]orb.Ring, len(room.Doors))
		for i := range room.Doors {
			zones[i] = room.DoorZone(i, d)
		}
		e.doorZones[t] = zones
	}
	return e
}

// Room returns the room the engine enforces rules in.
func (e *Engine) Room() model.Room {
	return e.room
}

// Rules returns the rule table.
func (e *Engine) Rules() *model.RuleTable {
	return e.rules
}

// WithScore returns a copy of the engine that uses score for the soft pass.
func (e *Engine) WithScore(score ScoreFunc) *Engine {
	cp := *e
	cp.opts.Score = score
	return &cp
}

// Report lists what a repair changed.
type Report struct {
	Removed     []string `json:"removed,omitempty"`
	Moved       []string `json:"moved,omitempty"`
	Rotated     []string `json:"rotated,omitempty"`
	Synthesized []string `json:"synthesized,omitempty"`
	// Rules counts the pipeline steps run by Apply, keyed by step name.
	Rules map[string]RuleStat `json:"rules,omitempty"`
}

// Changed reports whether anything was modified.
func (r Report) Changed() bool {
	return len(r.Removed)+len(r.Moved)+len(r.Rotated)+len(r.Synthesized) > 0
}

func (r *Report) merge(o Report) {
	r.Removed = append(r.Removed, o.Removed...)
	r.Moved = append(r.Moved, o.Moved...)
	r.Rotated = append(r.Rotated, o.Rotated...)
	r.Synthesized = append(r.Synthesized, o.Synthesized...)
}

func (r *Report) normalize() {
	r.Removed = uniq(r.Removed)
	r.Moved = uniq(r.Moved)
	r.Rotated = uniq(r.Rotated)
	r.Synthesized = uniq(r.Synthesized)
}

func uniq(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// Apply returns a repaired copy of l. Steps run in priority order, hard before
// soft, and the pipeline repeats until it stops changing the layout, so
// applying the engine to its own output is a no-op.
func (e *Engine) Apply(l *model.Layout) (*model.Layout, Report) {
	cur := l.Clone()
	var rep Report
	for pass := 0; pass < maxPasses; pass++ {
		before := cur.Clone()
		rep.record(RuleCollisions, e.FixCollisions(cur))
		rep.record(RuleDoorClearance, e.FixDoorClearance(cur))
		rep.record(RulePairClearance, e.FixPairClearance(cur))
		rep.record(RuleRelations, e.RepairRelations(cur))
		if e.opts.Score != nil {
			rep.record(RuleSoft, e.SoftPass(cur))
		}
		if cur.Equal(before, 0) {
			break
		}
	}
	rep.normalize()
	e.opts.Stats.Add(rep.Rules)
	if rep.Changed() {
		e.log.Debug("rules applied", "removed", len(rep.Removed), "moved", len(rep.Moved),
			"rotated", len(rep.Rotated), "synthesized", len(rep.Synthesized))
	}
	return cur, rep
}

// Valid reports whether l satisfies the accepted-layout invariants: every
// item valid and inside the room, and no two buffered polygons intersecting.
func (e *Engine) Valid(l *model.Layout) bool {
	if l.Validate() != nil {
		return false
	}
	ix := collision.New(e.room.Bound())
	for _, f := range l.Items {
		buf := f.BufferedPolygon()
		if !e.room.Contains(buf) || ix.Collides(f.ID, buf) {
			return false
		}
		ix.Insert(f)
	}
	return true
}

// HardViolations counts items that break a door zone or pair clearance rule.
func (e *Engine) HardViolations(l *model.Layout) int {
	n := 0
	for _, f := range l.Items {
		if e.InDoorZone(f) || !e.pairClear(f, l) {
			n++
		}
	}
	return n
}

// InDoorZone reports whether f's buffered polygon enters any door keep-out
// zone sized for its type.
func (e *Engine) InDoorZone(f *model.Furniture) bool {
	buf := f.BufferedPolygon()
	for _, z := range e.doorZones[f.Type] {
		if geom.Intersects(buf, z) {
			return true
		}
	}
	return false
}

// pairClear reports whether f keeps every type-pair minimum distance to the
// other items of l.
func (e *Engine) pairClear(f *model.Furniture, l *model.Layout) bool {
	for _, g := range l.Items {
		if g.ID == f.ID {
			continue
		}
		req := e.rules.PairClearance(f.Type, g.Type)
		if req <= 0 {
			continue
		}
		if geom.Distance(f.Polygon(), g.Polygon()) < req-geom.Eps {
			return false
		}
	}
	return true
}

// placeable reports whether f can stand where it is given the rest of l: a
// valid shape inside the room, no collision with the indexed items, outside
// door zones and clear of pair minimums.
func (e *Engine) placeable(f *model.Furniture, ix *collision.Index, l *model.Layout) bool {
	if f.Validate() != nil {
		return false
	}
	buf := f.BufferedPolygon()
	if !e.room.Contains(buf) || ix.Collides(f.ID, buf) {
		return false
	}
	if e.InDoorZone(f) {
		return false
	}
	return e.pairClear(f, l)
}

// Placeable reports whether f could be added to l as is.
func (e *Engine) Placeable(f *model.Furniture, l *model.Layout) bool {
	return e.placeable(f, collision.Build(e.room.Bound(), l), l)
}

// Fits is Placeable against a caller-maintained index of l, for callers
// testing many candidates against the same layout.
func (e *Engine) Fits(f *model.Furniture, ix *collision.Index, l *model.Layout) bool {
	return e.placeable(f, ix, l)
}

func (e *Engine) fixed(id string) bool {
	return e.opts.Constraints.IsFixed(id)
}

// clampInside shifts f so its buffered polygon lies within the room. Returns
// false when the polygon is larger than the room.
func (e *Engine) clampInside(f *model.Furniture) bool {
	b := f.BufferedPolygon().Bound()
	if b.Max[0]-b.Min[0] > e.room.Width+geom.Eps || b.Max[1]-b.Min[1] > e.room.Height+geom.Eps {
		return false
	}
	dx, dy := 0.0, 0.0
	if b.Min[0] < 0 {
		dx = -b.Min[0]
	} else if b.Max[0] > e.room.Width {
		dx = e.room.Width - b.Max[0]
	}
	if b.Min[1] < 0 {
		dy = -b.Min[1]
	} else if b.Max[1] > e.room.Height {
		dy = e.room.Height - b.Max[1]
	}
	f.MoveBy(dx, dy)
	return e.room.Contains(f.BufferedPolygon())
}

// away returns the unit vector from 'from' to 'to', falling back to the
// direction of the room center and then straight up for coincident points.
func (e *Engine) away(from, to orb.Point) (float64, float64) {
	dx, dy := to[0]-from[0], to[1]-from[1]
	if l := math.Hypot(dx, dy); l > geom.Eps {
		return dx / l, dy / l
	}
	c := e.room.Center()
	dx, dy = c[0]-to[0], c[1]-to[1]
	if l := math.Hypot(dx, dy); l > geom.Eps {
		return dx / l, dy / l
	}
	return 0, 1
}
