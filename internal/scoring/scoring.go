// Package scoring evaluates layouts: independent objective terms combined
// either into a weighted scalar or kept as a fitness vector for Pareto
// comparison.
package scoring

import (
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/pathfind"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// Comfort constants.
const (
	WindowReach     = 10.0 // bed comfort is max(0, WindowReach - distance to window)
	ViewingDistance = 3.0  // ideal sofa to TV center distance
	ViewingBonus    = 5.0
	ViewingFalloff  = 2.5 // bonus lost per metre off the ideal distance
)

// Aesthetics tolerances.
const (
	symmetryTolerance  = 0.5
	alignmentTolerance = 0.1
)

// Breakdown holds the value of every objective term for one layout.
type Breakdown struct {
	Comfort          float64 `json:"comfort"`
	Accessibility    float64 `json:"accessibility"`
	SpaceUtilization float64 `json:"space_utilization"`
	Aesthetics       float64 `json:"aesthetics"`
	Spacing          float64 `json:"spacing"`
	Relations        float64 `json:"relations"`
	Completeness     float64 `json:"completeness"`
}

// terms fixes the summation order so scalar scores are reproducible.
var terms = []string{
	model.TermComfort,
	model.TermAccessibility,
	model.TermSpace,
	model.TermAesthetics,
	model.TermSpacing,
	model.TermRelations,
	model.TermCompleteness,
}

// Terms returns the breakdown keyed by term name.
func (b Breakdown) Terms() map[string]float64 {
	return map[string]float64{
		model.TermComfort:       b.Comfort,
		model.TermAccessibility: b.Accessibility,
		model.TermSpace:         b.SpaceUtilization,
		model.TermAesthetics:    b.Aesthetics,
		model.TermSpacing:       b.Spacing,
		model.TermRelations:     b.Relations,
		model.TermCompleteness:  b.Completeness,
	}
}

// Scalar combines the terms with w.
func Scalar(b Breakdown, w model.Weights) float64 {
	values := b.Terms()
	total := 0.0
	for _, term := range terms {
		total += w.Get(term) * values[term]
	}
	return total
}

// Vector returns the fitness vector used in multi-objective mode: comfort,
// space utilization, aesthetics, accessibility. Higher is better on every
// axis.
func Vector(b Breakdown) []float64 {
	return []float64{b.Comfort, b.SpaceUtilization, b.Aesthetics, b.Accessibility}
}

// Options configures a Scorer.
type Options struct {
	GridResolution float64 // pathfinder cell size, default 0.5
	Requested      int     // manifest size for the completeness term
}

// Scorer evaluates layouts in one room. It caches paths between calls, so it
// is not safe for concurrent use; every worker builds its own.
type Scorer struct {
	room    model.Room
	rules   *model.RuleTable
	weights model.Weights
	opts    Options
	engine  *rules.Engine
	paths   *pathfind.Pathfinder
}

// New creates a scorer.
func New(room model.Room, rt *model.RuleTable, weights model.Weights, opts Options) *Scorer {
	if opts.GridResolution <= 0 {
		opts.GridResolution = 0.5
	}
	if weights == nil {
		weights = model.DefaultWeights()
	}
	return &Scorer{
		room:    room,
		rules:   rt,
		weights: weights,
		opts:    opts,
		engine:  rules.New(room, rt, rules.Options{}),
		paths:   pathfind.New(room, opts.GridResolution),
	}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() model.Weights {
	return s.weights
}

// Evaluate computes every term for l.
func (s *Scorer) Evaluate(l *model.Layout) Breakdown {
	return Breakdown{
		Comfort:          s.Comfort(l),
		Accessibility:    s.Accessibility(l),
		SpaceUtilization: s.SpaceUtilization(l),
		Aesthetics:       s.Aesthetics(l),
		Spacing:          s.Spacing(l),
		Relations:        s.Relations(l),
		Completeness:     s.Completeness(l),
	}
}

// Score returns the weighted scalar fitness of l.
func (s *Scorer) Score(l *model.Layout) float64 {
	return Scalar(s.Evaluate(l), s.weights)
}

// Comfort rewards beds close to a window and sofas at a good viewing
// distance from a TV stand.
func (s *Scorer) Comfort(l *model.Layout) float64 {
	score := 0.0
	for _, f := range l.Items {
		switch f.Type {
		case model.TypeBed:
			if d, ok := s.windowDistance(f); ok {
				score += math.Max(0, WindowReach-d)
			}
		case model.TypeSofa:
			if tv := nearestOf(f, l, model.TypeTVStand); tv != nil {
				d := planar.Distance(f.Center(), tv.Center())
				score += math.Max(0, ViewingBonus-ViewingFalloff*math.Abs(d-ViewingDistance))
			}
		}
	}
	return score
}

func (s *Scorer) windowDistance(f *model.Furniture) (float64, bool) {
	if len(s.room.Windows) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, w := range s.room.Windows {
		best = math.Min(best, planar.Distance(f.Center(), w.Center()))
	}
	return best, true
}

// Accessibility is the summed per-door path score from the pathfinder.
func (s *Scorer) Accessibility(l *model.Layout) float64 {
	s.paths.Update(l)
	return s.paths.DoorAccessibility()
}

// SpaceUtilization is the footprint area as a percentage of the floor area.
func (s *Scorer) SpaceUtilization(l *model.Layout) float64 {
	if s.room.Area() <= 0 {
		return 0
	}
	return l.UsedArea() / s.room.Area() * 100
}

// Aesthetics scores symmetry about the room's vertical center line and grid
// alignment, 50 points each. An item is symmetric when its center lies on
// the center line or another item of its type mirrors it; it is aligned when
// its x or y corner sits on the rule table's grid.
func (s *Scorer) Aesthetics(l *model.Layout) float64 {
	if l.Len() == 0 {
		return 0
	}
	mid := s.room.Width / 2
	step := s.rules.GridStep
	symmetric, aligned := 0, 0
	for _, f := range l.Items {
		c := f.Center()
		if math.Abs(c[0]-mid) < symmetryTolerance || hasMirror(f, l, mid) {
			symmetric++
		}
		if step > 0 && (onGrid(f.X, step) || onGrid(f.Y, step)) {
			aligned++
		}
	}
	n := float64(l.Len())
	return float64(symmetric)/n*50 + float64(aligned)/n*50
}

func hasMirror(f *model.Furniture, l *model.Layout, mid float64) bool {
	c := f.Center()
	for _, g := range l.Items {
		if g.ID == f.ID || g.Type != f.Type {
			continue
		}
		gc := g.Center()
		if math.Abs(gc[0]-(2*mid-c[0])) < symmetryTolerance && math.Abs(gc[1]-c[1]) < symmetryTolerance {
			return true
		}
	}
	return false
}

func onGrid(v, step float64) bool {
	return math.Abs(v/step-math.Round(v/step))*step < alignmentTolerance
}

// Spacing is a non-positive penalty: every pair whose footprints are closer
// than the rule table's minimum spacing subtracts the shortfall.
func (s *Scorer) Spacing(l *model.Layout) float64 {
	min := s.rules.MinSpacing
	if min <= 0 {
		return 0
	}
	penalty := 0.0
	for i, a := range l.Items {
		for _, b := range l.Items[i+1:] {
			if d := geom.Distance(a.Polygon(), b.Polygon()); d < min {
				penalty += d - min
			}
		}
	}
	return penalty
}

// Relations is the percentage of applicable must-near and facing rules that
// hold; 100 when none apply.
func (s *Scorer) Relations(l *model.Layout) float64 {
	sat, total := s.engine.RelationStats(l)
	if total == 0 {
		return 100
	}
	return float64(sat) / float64(total) * 100
}

// Completeness is the percentage of requested items present; 100 when the
// request size is unknown.
func (s *Scorer) Completeness(l *model.Layout) float64 {
	if s.opts.Requested <= 0 {
		return 100
	}
	return math.Min(1, float64(l.Len())/float64(s.opts.Requested)) * 100
}

func nearestOf(f *model.Furniture, l *model.Layout, t model.FurnitureType) *model.Furniture {
	var best *model.Furniture
	bestD := math.Inf(1)
	for _, g := range l.Items {
		if g.ID == f.ID || g.Type != t {
			continue
		}
		if d := planar.Distance(f.Center(), g.Center()); d < bestD {
			best, bestD = g, d
		}
	}
	return best
}
