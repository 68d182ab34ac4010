package engine

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/placement"
	"github.com/piwi3910/roomlayout/internal/rules"
	"github.com/piwi3910/roomlayout/internal/scoring"
)

// Problem is the immutable input shared by every optimizer stage. Workers read
// it concurrently; nothing writes to it after construction.
type Problem struct {
	Room              model.Room
	Rules             *model.RuleTable
	Weights           model.Weights
	Constraints       *model.ConstraintSet
	Requested         int // manifest size, for the completeness term
	GridResolution    float64
	PlacementAttempts int
	SoftRounds        int
	Logger            *log.Logger
	Stats             *rules.Stats // optional; collects rule pipeline counters
}

func (p *Problem) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}

func (p *Problem) placer(seed int64, grow bool) *placement.Placer {
	opts := placement.DefaultOptions()
	if p.PlacementAttempts > 0 {
		opts.Attempts = p.PlacementAttempts
	}
	if p.GridResolution > 0 {
		opts.GridResolution = p.GridResolution
	}
	opts.Grow = grow
	opts.Constraints = p.Constraints
	opts.Logger = p.logger()
	return placement.New(p.Room, p.Rules, opts, newRand(seed))
}

// evaluator bundles the per-worker state: a scorer with its path cache and
// rule engines bound to that scorer. It is never shared between goroutines.
type evaluator struct {
	problem *Problem
	scorer  *scoring.Scorer
	repairs *rules.Engine // full pipeline including the soft pass
	checks  *rules.Engine // hard and relational rules only
}

func (p *Problem) newEvaluator() *evaluator {
	s := scoring.New(p.Room, p.Rules, p.Weights, scoring.Options{
		GridResolution: p.GridResolution,
		Requested:      p.Requested,
	})
	base := rules.New(p.Room, p.Rules, rules.Options{
		Constraints: p.Constraints,
		SoftRounds:  p.SoftRounds,
		Logger:      p.logger(),
		Stats:       p.Stats,
	})
	return &evaluator{problem: p, scorer: s, repairs: base.WithScore(s.Score), checks: base}
}

// evaluate scores l without changing it.
func (ev *evaluator) evaluate(l *model.Layout) Individual {
	b := ev.scorer.Evaluate(l)
	return Individual{
		Layout:    l,
		Score:     scoring.Scalar(b, ev.scorer.Weights()),
		Breakdown: b,
		Vector:    scoring.Vector(b),
	}
}

// repair runs the rule pipeline on l and reports whether the result is an
// acceptable individual: valid and not empty.
func (ev *evaluator) repair(l *model.Layout) (*model.Layout, bool) {
	out, _ := ev.repairs.Apply(l)
	return out, out.Len() > 0 && ev.checks.Valid(out)
}

// feasible repairs a local search candidate without the soft pass. The
// candidate is feasible when the result is valid, keeps every id in ids and
// satisfies the constraint set.
func (ev *evaluator) feasible(l *model.Layout, ids []string) (*model.Layout, bool) {
	out, _ := ev.checks.Apply(l)
	if !ev.checks.Valid(out) {
		return out, false
	}
	for _, id := range ids {
		if out.Find(id) == nil {
			return out, false
		}
	}
	return out, ev.problem.Constraints.Satisfied(out)
}

// zoneBound returns the region an item of type t is kept in by mutation.
func (p *Problem) zoneBound(t model.FurnitureType) orb.Bound {
	rule, _ := p.Rules.Rule(t)
	return p.Room.PlacementBound(rule.Zone)
}

// clampCenter moves c so f's buffered polygon stays inside b. When f is wider
// than b on an axis it is centred on that axis.
func clampCenter(b orb.Bound, f *model.Furniture, c orb.Point) orb.Point {
	fb := f.BufferedPolygon().Bound()
	hx := (fb.Max[0] - fb.Min[0]) / 2
	hy := (fb.Max[1] - fb.Min[1]) / 2
	return orb.Point{clampAxis(c[0], b.Min[0]+hx, b.Max[0]-hx), clampAxis(c[1], b.Min[1]+hy, b.Max[1]-hy)}
}

func clampAxis(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ids(l *model.Layout) []string {
	out := make([]string, len(l.Items))
	for i, f := range l.Items {
		out[i] = f.ID
	}
	return out
}
