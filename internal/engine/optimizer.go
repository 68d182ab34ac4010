// Package engine searches for good layouts: a strategy-placed seed, a
// genetic search (single objective or NSGA-II) and local refinement.
package engine

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// Optimizer runs the hybrid layout search.
type Optimizer struct {
	Config      *model.Config
	Constraints *model.ConstraintSet
	Logger      *log.Logger
}

func New(cfg *model.Config) *Optimizer {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return &Optimizer{Config: cfg}
}

// Result is the outcome of one optimization.
type Result struct {
	Room     model.Room // grown when the seed placement needed more space
	Best     Individual
	Front    []Individual // multi-objective mode only
	History  []GenerationStats
	Unplaced []string // items the seed placement could not fit
	Removed  []string // requested items missing from the best layout
	// RuleStats counts the rule pipeline steps run during the search.
	RuleStats map[string]rules.RuleStat
}

// Record converts the result into its persisted form.
func (r *Result) Record() *model.Result {
	rec := &model.Result{
		Layout:    r.Best.Layout.Records(),
		Score:     r.Best.Score,
		Breakdown: r.Best.Breakdown.Terms(),
		Removed:   r.Removed,
	}
	for _, ind := range r.Front {
		rec.Front = append(rec.Front, ind.Layout.Records())
	}
	return rec
}

func (o *Optimizer) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

// Optimize lays out the manifest in room. Configuration problems (invalid
// rules, room or manifest, constraints naming unknown items) are returned
// before any search starts; everything after that is absorbed into the
// result.
func (o *Optimizer) Optimize(room model.Room, manifest model.Manifest) (*Result, error) {
	rt := o.Config.Rules
	if err := rt.Validate(); err != nil {
		return nil, err
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	items, err := manifest.Expand(rt)
	if err != nil {
		return nil, err
	}
	if err := o.Constraints.Validate(model.NewLayout(items...)); err != nil {
		return nil, err
	}

	s := o.Config.Settings
	logger := o.logger()
	p := &Problem{
		Room:              room.Clone(),
		Rules:             rt,
		Weights:           o.Config.Weights,
		Constraints:       o.Constraints,
		Requested:         len(items),
		GridResolution:    s.GridResolution,
		PlacementAttempts: s.PlacementAttempts,
		SoftRounds:        s.SoftRounds,
		Logger:            logger,
		Stats:             rules.NewStats(),
	}

	placer := p.placer(s.Seed, true)
	seed, unplaced := placer.Place(items)
	if grown := placer.Room(); grown.Width != room.Width || grown.Height != room.Height {
		logger.Info("room grown for seed placement",
			"from", fmt.Sprintf("%.2fx%.2f", room.Width, room.Height),
			"to", fmt.Sprintf("%.2fx%.2f", grown.Width, grown.Height))
		p.Room = grown
	}

	cfg := GeneticConfigFrom(s)
	logger.Info("starting search", "items", len(items), "population", cfg.PopulationSize,
		"generations", cfg.Generations, "objective", s.Objective)
	ga := NewGenetic(p, cfg, items, seed)
	gr := ga.Run()

	res := &Result{Room: p.Room, History: gr.History, Unplaced: unplaced}
	if gr.Best.Layout == nil {
		res.Best = Individual{Layout: model.NewLayout()}
		res.Removed = missing(items, res.Best.Layout)
		res.RuleStats = p.Stats.Snapshot()
		return res, nil
	}

	switch {
	case cfg.MultiObjective && s.Refiner != model.RefinerNone:
		layouts := make([]*model.Layout, len(gr.Front))
		for i, ind := range gr.Front {
			layouts[i] = ind.Layout
		}
		res.Front = ParetoFront(ga.pool.Refine(layouts, model.RefinerNelderMead, s.RefineIterations))
		res.Best = bestOf(res.Front)
	case cfg.MultiObjective:
		res.Front = gr.Front
		res.Best = gr.Best
	default:
		res.Best = gr.Best
		if s.Refiner != model.RefinerNone {
			if r := ga.pool.Refine([]*model.Layout{gr.Best.Layout}, s.Refiner, s.RefineIterations)[0]; r.Score > res.Best.Score {
				logger.Debug("refinement improved best layout", "before", res.Best.Score, "after", r.Score)
				res.Best = r
			}
		}
	}

	res.Removed = missing(items, res.Best.Layout)
	res.RuleStats = p.Stats.Snapshot()
	logger.Info("search finished", "score", res.Best.Score, "placed", res.Best.Layout.Len(),
		"removed", len(res.Removed), "front", len(res.Front))
	return res, nil
}

// missing returns the ids of items absent from l, sorted.
func missing(items []*model.Furniture, l *model.Layout) []string {
	var out []string
	for _, f := range items {
		if l.Find(f.ID) == nil {
			out = append(out, f.ID)
		}
	}
	sort.Strings(out)
	return out
}
