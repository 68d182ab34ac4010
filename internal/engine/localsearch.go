package engine

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/optimize"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
	"github.com/piwi3910/roomlayout/internal/scoring"
)

// Local search constants.
const (
	infeasible     = 1e12 // objective value of a candidate that fails repair
	simplexSize    = 0.5  // initial Nelder-Mead simplex edge, metres
	windowStep     = 0.5  // largest bed move toward a window per hint
	windowComfort  = 1.0  // beds closer than this to a window get no hint
	snapHintValue  = 0.05
	improvementEps = 1e-9
)

// Refine runs the selected local search on a copy of l and returns the best
// feasible layout found, an unchanged copy of l when nothing improves.
func (p *Problem) Refine(l *model.Layout, refiner model.Refiner, iterations int) *model.Layout {
	return p.newEvaluator().refine(l.Clone(), refiner, iterations)
}

func (ev *evaluator) refine(l *model.Layout, refiner model.Refiner, iterations int) *model.Layout {
	switch refiner {
	case model.RefinerNelderMead:
		return ev.nelderMead(l, iterations)
	case model.RefinerTryFail:
		return ev.tryFail(l, iterations)
	default:
		return l
	}
}

// nelderMead encodes the centres of every unfixed item as one flat vector and
// minimises the negative weighted score with a Nelder-Mead simplex. Each
// evaluation clamps the decoded centres to the room and runs the rule engine,
// so only feasible layouts are ever kept.
func (ev *evaluator) nelderMead(l *model.Layout, iterations int) *model.Layout {
	var movable []int
	for i, f := range l.Items {
		if !ev.problem.Constraints.IsFixed(f.ID) {
			movable = append(movable, i)
		}
	}
	if len(movable) == 0 || iterations <= 0 {
		return l
	}

	keep := ids(l)
	best, bestScore := l, math.Inf(-1)
	if ev.checks.Valid(l) && ev.problem.Constraints.Satisfied(l) {
		bestScore = ev.scorer.Score(l)
	}

	x0 := make([]float64, 0, 2*len(movable))
	for _, i := range movable {
		c := l.Items[i].Center()
		x0 = append(x0, c[0], c[1])
	}
	bound := ev.problem.Room.Bound()
	decode := func(x []float64) *model.Layout {
		cand := l.Clone()
		for k, i := range movable {
			f := cand.Items[i]
			f.SetCenter(clampCenter(bound, f, orb.Point{x[2*k], x[2*k+1]}))
		}
		return cand
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			out, ok := ev.feasible(decode(x), keep)
			if !ok {
				return infeasible
			}
			s := ev.scorer.Score(out)
			if s > bestScore+improvementEps {
				best, bestScore = out, s
			}
			return -s
		},
	}
	settings := &optimize.Settings{
		MajorIterations: iterations,
		FuncEvaluations: iterations * (len(x0) + 1),
	}
	if _, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: simplexSize}); err != nil {
		ev.problem.logger().Debug("nelder-mead stopped", "err", err)
	}
	return best
}

// hint is one local suggestion for the try-fail search.
type hint struct {
	id    string
	kind  string
	value float64 // expected benefit; higher is tried first
	apply func(f *model.Furniture)
}

// tryFail repeatedly applies the highest-value hint that yields a feasible,
// strictly better layout. It stops when no hint improves the layout or after
// attempts hints have been tried.
func (ev *evaluator) tryFail(l *model.Layout, attempts int) *model.Layout {
	keep := ids(l)
	cur := l
	curScore := ev.scorer.Score(cur)
	tried := 0
	for tried < attempts {
		improved := false
		for _, h := range ev.hints(cur) {
			if tried >= attempts {
				break
			}
			tried++
			cand := cur.Clone()
			h.apply(cand.Find(h.id))
			out, ok := ev.feasible(cand, keep)
			if !ok {
				continue
			}
			if s := ev.scorer.Score(out); s > curScore+improvementEps {
				ev.problem.logger().Debug("hint accepted", "id", h.id, "kind", h.kind, "score", s)
				cur, curScore, improved = out, s, true
				break
			}
		}
		if !improved {
			break
		}
	}
	return cur
}

// hints lists the local suggestions for l, best first: close the gap to a
// required neighbour, turn toward a facing target, move a bed toward a
// window, snap to the grid. Fixed items get none.
func (ev *evaluator) hints(l *model.Layout) []hint {
	rt := ev.problem.Rules
	var out []hint
	for _, f := range l.Items {
		if ev.problem.Constraints.IsFixed(f.ID) {
			continue
		}
		if h, ok := ev.nearHint(f, l); ok {
			out = append(out, h)
		}
		if t := rules.FacingTarget(f, l); t != nil {
			if off := scoring.FacingError(f, l); off > 1 {
				heading := geom.Heading(f.Center(), t.Center())
				out = append(out, hint{id: f.ID, kind: "face", value: off / 90, apply: func(g *model.Furniture) {
					g.SetRotation(heading)
				}})
			}
		}
		if h, ok := ev.windowHint(f); ok {
			out = append(out, h)
		}
		if step := rt.GridStep; step > 0 {
			x, y := snap(f.X, step), snap(f.Y, step)
			if x != f.X || y != f.Y {
				out = append(out, hint{id: f.ID, kind: "snap", value: snapHintValue, apply: func(g *model.Furniture) {
					g.SetPosition(x, y)
				}})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value > out[j].value })
	return out
}

func (ev *evaluator) nearHint(f *model.Furniture, l *model.Layout) (hint, bool) {
	if len(f.MustNear) == 0 || ev.checks.NearSatisfied(f, l) {
		return hint{}, false
	}
	var target *model.Furniture
	best := math.Inf(1)
	for _, g := range l.Items {
		if g.ID == f.ID || !f.Requires(g.Type) {
			continue
		}
		if d := planar.Distance(f.Center(), g.Center()); d < best {
			target, best = g, d
		}
	}
	if target == nil || best == 0 {
		return hint{}, false
	}
	gap := geom.Distance(f.BufferedPolygon(), target.BufferedPolygon()) - ev.problem.Rules.NearDistance(f.Type)
	if gap <= 0 {
		return hint{}, false
	}
	c, tc := f.Center(), target.Center()
	step := gap + 0.05
	dx, dy := (tc[0]-c[0])/best*step, (tc[1]-c[1])/best*step
	return hint{id: f.ID, kind: "near", value: gap, apply: func(g *model.Furniture) {
		g.MoveBy(dx, dy)
	}}, true
}

func (ev *evaluator) windowHint(f *model.Furniture) (hint, bool) {
	if f.Type != model.TypeBed || len(ev.problem.Room.Windows) == 0 {
		return hint{}, false
	}
	c := f.Center()
	var w orb.Point
	best := math.Inf(1)
	for _, win := range ev.problem.Room.Windows {
		if d := planar.Distance(c, win.Center()); d < best {
			w, best = win.Center(), d
		}
	}
	if best <= windowComfort {
		return hint{}, false
	}
	step := math.Min(windowStep, best-windowComfort)
	dx, dy := (w[0]-c[0])/best*step, (w[1]-c[1])/best*step
	return hint{id: f.ID, kind: "window", value: step, apply: func(g *model.Furniture) {
		g.MoveBy(dx, dy)
	}}, true
}

func snap(v, step float64) float64 {
	return math.Round(v/step) * step
}
