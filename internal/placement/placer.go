package placement

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// Options configures a Placer.
type Options struct {
	Attempts       int     // pose budget per item before falling back, default 200
	GridResolution float64 // fallback scan step in metres, default 0.5
	// Grow lets the placer enlarge the room when an item cannot be placed
	// otherwise. Only seed layouts use it.
	Grow        bool
	Constraints *model.ConstraintSet
	Logger      *log.Logger
}

// DefaultOptions returns the settings used for seed layouts.
func DefaultOptions() Options {
	return Options{Attempts: 200, GridResolution: 0.5}
}

// Placer puts furniture into a room one item at a time. It is not safe for
// concurrent use; each worker builds its own.
type Placer struct {
	room   model.Room
	rules  *model.RuleTable
	opts   Options
	rng    *rand.Rand
	engine *rules.Engine
	log    *log.Logger
}

// New creates a placer. rng drives every random choice, so a fixed seed
// gives a reproducible layout.
func New(room model.Room, rt *model.RuleTable, opts Options, rng *rand.Rand) *Placer {
	if opts.Attempts <= 0 {
		opts.Attempts = 200
	}
	if opts.GridResolution <= 0 {
		opts.GridResolution = 0.5
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := &Placer{room: room.Clone(), rules: rt, opts: opts, rng: rng, log: logger}
	p.resetEngine()
	return p
}

func (p *Placer) resetEngine() {
	p.engine = rules.New(p.room, p.rules, rules.Options{Constraints: p.opts.Constraints, Logger: p.log})
}

// Room returns the room, grown if Grow was set and an item needed more space.
func (p *Placer) Room() model.Room {
	return p.room
}

// Place builds a layout with each type's strategy. Items are placed in type
// priority order (fixed items first); every item either lands on a pose the
// rule engine accepts or is returned in unplaced.
func (p *Placer) Place(items []*model.Furniture) (*model.Layout, []string) {
	return p.place(items, func(s *Site, f *model.Furniture) []Pose {
		return StrategyFor(f.Type).Candidates(s, f)
	})
}

// Scatter builds a layout from random poses in each type's zone, for
// population diversity.
func (p *Placer) Scatter(items []*model.Furniture) (*model.Layout, []string) {
	return p.place(items, func(s *Site, f *model.Furniture) []Pose {
		return randomPoses(s, f, s.ZoneBound(f.Type), samples)
	})
}

func (p *Placer) place(items []*model.Furniture, propose func(*Site, *model.Furniture) []Pose) (*model.Layout, []string) {
	order := make([]*model.Furniture, len(items))
	copy(order, items)
	sort.SliceStable(order, func(i, j int) bool {
		fi, fj := p.opts.Constraints.IsFixed(order[i].ID), p.opts.Constraints.IsFixed(order[j].ID)
		if fi != fj {
			return fi
		}
		return priorityOf(order[i].Type) < priorityOf(order[j].Type)
	})

	l := model.NewLayout()
	ix := collision.New(p.room.Bound())
	var unplaced []string
	for _, f := range order {
		placed := p.placeOne(f, l, ix, propose)
		if placed == nil && p.opts.Grow && p.grow(f) {
			ix = collision.Build(p.room.Bound(), l)
			placed = p.fallback(f, l, ix)
		}
		if placed == nil {
			p.log.Warn("could not place item", "id", f.ID, "type", f.Type)
			unplaced = append(unplaced, f.ID)
			continue
		}
		l.Add(placed)
		ix.Insert(placed)
	}
	return l, unplaced
}

// placeOne tries the fixed pose, then the proposals, then the fallback scan.
func (p *Placer) placeOne(f *model.Furniture, l *model.Layout, ix *collision.Index, propose func(*Site, *model.Furniture) []Pose) *model.Furniture {
	if fc := p.fixedPose(f); fc != nil {
		if p.engine.Fits(fc, ix, l) {
			return fc
		}
		p.log.Warn("fixed position not placeable", "id", f.ID)
	}

	site := &Site{Room: p.room, Rules: p.rules, Engine: p.engine, Layout: l, Rand: p.rng}
	tried := 0
	for tried < p.opts.Attempts {
		poses := propose(site, f)
		if len(poses) == 0 {
			break
		}
		for _, pose := range poses {
			if tried >= p.opts.Attempts {
				break
			}
			tried++
			if c := pose.Apply(f); p.engine.Fits(c, ix, l) {
				return c
			}
		}
	}

	if c := p.fallback(f, l, ix); c != nil {
		p.log.Warn("placement fell back to grid", "id", f.ID, "type", f.Type)
		return c
	}
	return nil
}

func (p *Placer) fixedPose(f *model.Furniture) *model.Furniture {
	if p.opts.Constraints == nil {
		return nil
	}
	for _, fc := range p.opts.Constraints.Fixed {
		if fc.ID == f.ID {
			c := f.Clone()
			c.SetPosition(fc.X, fc.Y)
			return c
		}
	}
	return nil
}

// fallback scans the free space deterministically: first the corners of the
// free rectangles left by doors and placed items, then a regular grid.
func (p *Placer) fallback(f *model.Furniture, l *model.Layout, ix *collision.Index) *model.Furniture {
	for _, pose := range p.freePoses(f, l) {
		if c := pose.Apply(f); p.engine.Fits(c, ix, l) {
			return c
		}
	}
	step := p.opts.GridResolution
	for _, rot := range []float64{0, 90} {
		hx, hy := extents(f, rot)
		for y := hy; y <= p.room.Height-hy+1e-9; y += step {
			for x := hx; x <= p.room.Width-hx+1e-9; x += step {
				c := Pose{Center: orb.Point{x, y}, Rotation: rot}.Apply(f)
				if p.engine.Fits(c, ix, l) {
					return c
				}
			}
		}
	}
	return nil
}

func (p *Placer) freePoses(f *model.Furniture, l *model.Layout) []Pose {
	fs := newFreeSpace(p.room.Bound())
	d := p.rules.DoorDistance(f.Type)
	for i := range p.room.Doors {
		fs.exclude(p.room.DoorZone(i, d).Bound())
	}
	for _, g := range l.Items {
		fs.exclude(g.BufferedPolygon().Bound())
	}
	var poses []Pose
	for _, rot := range []float64{0, 90} {
		hx, hy := extents(f, rot)
		for _, at := range fs.fits(2*hx, 2*hy) {
			poses = append(poses, Pose{Center: orb.Point{at[0] + hx, at[1] + hy}, Rotation: rot})
		}
	}
	return poses
}

// grow enlarges the room so f fits: to f's buffered size when the room is
// smaller than the item, otherwise by a strip as wide as the item along the
// right wall. Growth is monotonic.
func (p *Placer) grow(f *model.Furniture) bool {
	hx, hy := extents(f, 0)
	w, h := 2*hx, 2*hy
	before := fmt.Sprintf("%.2fx%.2f", p.room.Width, p.room.Height)
	if !p.room.ExpandToFit(w, h) {
		p.room.ExpandToFit(p.room.Width+w, math.Max(p.room.Height, h))
	}
	p.resetEngine()
	p.log.Warn("room grown to fit item", "id", f.ID, "from", before,
		"to", fmt.Sprintf("%.2fx%.2f", p.room.Width, p.room.Height))
	return true
}
