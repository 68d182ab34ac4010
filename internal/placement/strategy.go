// Package placement builds initial layouts: each furniture type has a
// placement strategy that proposes poses in order of preference, and the
// Placer keeps the first one the rule engine accepts, falling back to a
// deterministic free-space scan and, for seed layouts, to growing the room.
package placement

import (
	"math"
	"math/rand"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// Pose is a candidate center and rotation for an item.
type Pose struct {
	Center   orb.Point
	Rotation float64
}

// Apply returns a copy of f moved to the pose.
func (p Pose) Apply(f *model.Furniture) *model.Furniture {
	c := f.Clone()
	c.SetRotation(p.Rotation)
	c.SetCenter(p.Center)
	return c
}

// Site is what a strategy sees: the room, the rules and the items placed so
// far.
type Site struct {
	Room   model.Room
	Rules  *model.RuleTable
	Engine *rules.Engine
	Layout *model.Layout
	Rand   *rand.Rand
}

// ZoneBound returns the region items of type t should go in.
func (s *Site) ZoneBound(t model.FurnitureType) orb.Bound {
	rule, _ := s.Rules.Rule(t)
	return s.Room.PlacementBound(rule.Zone)
}

// Strategy proposes poses for an item, best first. Strategies only propose;
// the Placer checks every pose against the rule engine.
type Strategy interface {
	Candidates(s *Site, f *model.Furniture) []Pose
}

// registry maps each furniture type to its strategy. Types without an entry
// use zoneStrategy.
var registry = map[model.FurnitureType]Strategy{
	model.TypeBed:         bedStrategy{},
	model.TypeSofa:        sofaStrategy{},
	model.TypeTable:       tableStrategy{},
	model.TypeChair:       chairStrategy{},
	model.TypeWardrobe:    wardrobeStrategy{},
	model.TypeTVStand:     tvStandStrategy{},
	model.TypeCoffeeTable: besideStrategy{anchor: model.TypeSofa},
	model.TypeBookshelf:   wallStrategy{},
	model.TypeDesk:        deskStrategy{},
	model.TypeShoeCabinet: shoeCabinetStrategy{},
	model.TypeNightstand:  besideStrategy{anchor: model.TypeBed},
}

// StrategyFor returns the strategy registered for t.
func StrategyFor(t model.FurnitureType) Strategy {
	if s, ok := registry[t]; ok {
		return s
	}
	return zoneStrategy{}
}

// priority is the order types are placed in: large anchors first, then the
// items that depend on them.
var priority = []model.FurnitureType{
	model.TypeBed,
	model.TypeSofa,
	model.TypeTable,
	model.TypeWardrobe,
	model.TypeDesk,
	model.TypeTVStand,
	model.TypeCoffeeTable,
	model.TypeBookshelf,
	model.TypeShoeCabinet,
	model.TypeNightstand,
	model.TypeChair,
}

func priorityOf(t model.FurnitureType) int {
	for i, p := range priority {
		if p == t {
			return i
		}
	}
	return len(priority)
}

const samples = 8 // random samples per strategy call

// zoneStrategy samples random poses inside the type's zone.
type zoneStrategy struct{}

func (zoneStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	return randomPoses(s, f, s.ZoneBound(f.Type), samples)
}

// wallStrategy lines the item up against the walls, walls nearest the type's
// zone first.
type wallStrategy struct{}

func (wallStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	return wallPoses(s, f, s.ZoneBound(f.Type), samples)
}

// bedStrategy prefers walls far from every door.
type bedStrategy struct{}

func (bedStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	poses := wallPoses(s, f, s.ZoneBound(f.Type), samples)
	sortBy(poses, func(p Pose) float64 { return -doorDistance(s.Room, p.Center) })
	return poses
}

// wardrobeStrategy goes beside the bed at the bed's pair distance, then along
// the walls closest to it.
type wardrobeStrategy struct{}

func (wardrobeStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	var poses []Pose
	bed := nearest(s.Layout, f, model.TypeBed)
	if bed != nil {
		gap := math.Max(s.Rules.PairClearance(model.TypeBed, f.Type), bed.Clearance+f.Clearance) + 0.05
		poses = append(poses, beside(bed, f, gap)...)
	}
	walls := wallPoses(s, f, s.ZoneBound(f.Type), samples)
	if bed != nil {
		bc := bed.Center()
		sortBy(walls, func(p Pose) float64 { return planar.Distance(p.Center, bc) })
	}
	return append(poses, walls...)
}

// besideStrategy puts the item next to the nearest anchor item, touching its
// clearance buffer.
type besideStrategy struct {
	anchor model.FurnitureType
}

func (b besideStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	var poses []Pose
	if a := nearest(s.Layout, f, b.anchor); a != nil {
		gap := math.Max(s.Rules.PairClearance(a.Type, f.Type), a.Clearance+f.Clearance) + 0.05
		poses = beside(a, f, gap)
	}
	return append(poses, randomPoses(s, f, s.ZoneBound(f.Type), samples)...)
}

// sofaStrategy faces an existing TV stand, otherwise samples the living zone.
type sofaStrategy struct{}

func (sofaStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	var poses []Pose
	if tv := nearest(s.Layout, f, model.TypeTVStand); tv != nil {
		poses = facing(tv, f, s.Rules.PairClearance(f.Type, tv.Type)+0.2)
	}
	poses = append(poses, randomPoses(s, f, s.ZoneBound(f.Type), samples)...)
	return append(poses, wallPoses(s, f, s.ZoneBound(f.Type), samples/2)...)
}

// tvStandStrategy goes in front of the sofa, facing it, else against a wall.
type tvStandStrategy struct{}

func (tvStandStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	var poses []Pose
	if sofa := nearest(s.Layout, f, model.TypeSofa); sofa != nil {
		poses = facing(sofa, f, s.Rules.PairClearance(f.Type, sofa.Type)+0.2)
	}
	return append(poses, wallPoses(s, f, s.ZoneBound(f.Type), samples)...)
}

// tableStrategy tries the middle of the dining zone first so chairs fit
// around it.
type tableStrategy struct{}

func (tableStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	b := s.ZoneBound(f.Type)
	poses := []Pose{{Center: b.Center()}, {Center: b.Center(), Rotation: 90}}
	return append(poses, randomPoses(s, f, b, samples)...)
}

// chairStrategy uses the group slots around the nearest table or desk.
type chairStrategy struct{}

func (chairStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	var poses []Pose
	for _, t := range []model.FurnitureType{model.TypeTable, model.TypeDesk} {
		for _, anchor := range s.Layout.ByType(t) {
			rule, _ := s.Rules.Rule(anchor.Type)
			n := rule.ChairCount
			if n < 4 {
				n = 4
			}
			for _, slot := range s.Engine.GroupSlots(anchor, f.Width, f.Height, f.Clearance, n) {
				poses = append(poses, Pose{Center: slot.Center, Rotation: slot.Rotation})
			}
		}
	}
	fc := f.Center()
	if a := nearest(s.Layout, f, model.TypeTable, model.TypeDesk); a != nil {
		fc = a.Center()
	}
	sortBy(poses, func(p Pose) float64 { return planar.Distance(p.Center, fc) })
	return append(poses, randomPoses(s, f, s.ZoneBound(f.Type), samples)...)
}

// deskStrategy puts the desk against a wall, nearest a window first.
type deskStrategy struct{}

func (deskStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	poses := wallPoses(s, f, s.ZoneBound(f.Type), samples)
	if len(s.Room.Windows) > 0 {
		sortBy(poses, func(p Pose) float64 { return windowDistance(s.Room, p.Center) })
	}
	return poses
}

// shoeCabinetStrategy lines the wall next to the main door, the door closest
// to the origin.
type shoeCabinetStrategy struct{}

func (shoeCabinetStrategy) Candidates(s *Site, f *model.Furniture) []Pose {
	poses := wallPoses(s, f, s.Room.Bound(), 2*samples)
	if len(s.Room.Doors) == 0 {
		return poses
	}
	main := s.Room.Doors[0]
	for _, d := range s.Room.Doors[1:] {
		if d.X*d.X+d.Y*d.Y < main.X*main.X+main.Y*main.Y {
			main = d
		}
	}
	dc := main.Center()
	sortBy(poses, func(p Pose) float64 { return planar.Distance(p.Center, dc) })
	return poses
}

func sortBy(poses []Pose, key func(Pose) float64) {
	keys := make([]float64, len(poses))
	for i, p := range poses {
		keys[i] = key(p)
	}
	idx := make([]int, len(poses))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	sorted := make([]Pose, len(poses))
	for i, k := range idx {
		sorted[i] = poses[k]
	}
	copy(poses, sorted)
}

func doorDistance(room model.Room, p orb.Point) float64 {
	best := math.Inf(1)
	for _, d := range room.Doors {
		best = math.Min(best, planar.Distance(p, d.Center()))
	}
	return best
}

func windowDistance(room model.Room, p orb.Point) float64 {
	best := math.Inf(1)
	for _, w := range room.Windows {
		best = math.Min(best, planar.Distance(p, w.Center()))
	}
	return best
}

// nearest returns the item of one of types closest to f's current center.
func nearest(l *model.Layout, f *model.Furniture, types ...model.FurnitureType) *model.Furniture {
	var best *model.Furniture
	bestD := math.Inf(1)
	fc := f.Center()
	for _, g := range l.Items {
		if g.ID == f.ID {
			continue
		}
		for _, t := range types {
			if g.Type != t {
				continue
			}
			if d := planar.Distance(fc, g.Center()); d < bestD {
				best, bestD = g, d
			}
		}
	}
	return best
}

// extents returns the half extents of f's buffered footprint along x and y
// for an axis-aligned rotation.
func extents(f *model.Furniture, rot float64) (float64, float64) {
	w, h := f.Width, f.Height
	if math.Mod(rot, 180) != 0 {
		w, h = h, w
	}
	return w/2 + f.Clearance, h/2 + f.Clearance
}

// randomPoses samples n axis-aligned poses whose buffered footprint lies in
// b when it can.
func randomPoses(s *Site, f *model.Furniture, b orb.Bound, n int) []Pose {
	poses := make([]Pose, 0, n)
	for i := 0; i < n; i++ {
		rot := float64(s.Rand.Intn(4)) * 90
		hx, hy := extents(f, rot)
		poses = append(poses, Pose{
			Center:   orb.Point{span(s.Rand, b.Min[0]+hx, b.Max[0]-hx), span(s.Rand, b.Min[1]+hy, b.Max[1]-hy)},
			Rotation: rot,
		})
	}
	return poses
}

// span returns a uniform value in [lo, hi], or their midpoint when the range
// is empty.
func span(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// wallPoses returns poses flush against the room walls with the item's long
// side along the wall. Walls touching (or nearest) b come first; positions
// along a wall are the middle of b's span plus n-1 random samples.
func wallPoses(s *Site, f *model.Furniture, b orb.Bound, n int) []Pose {
	room := s.Room
	along := 0.0
	if f.Height > f.Width {
		along = 90
	}
	type wall struct {
		gap   float64
		poses []Pose
	}
	var walls []wall
	for k := 0; k < 4; k++ {
		horizontal := k%2 == 0
		rot := along
		if !horizontal {
			rot = math.Mod(along+90, 180)
		}
		if k >= 2 {
			rot += 180
		}
		hx, hy := extents(f, rot)
		var w wall
		for i := 0; i < n; i++ {
			var c orb.Point
			switch k {
			case 0: // bottom
				c = orb.Point{alongWall(s.Rand, i, b.Min[0], b.Max[0], hx), hy}
				w.gap = b.Min[1]
			case 1: // right
				c = orb.Point{room.Width - hx, alongWall(s.Rand, i, b.Min[1], b.Max[1], hy)}
				w.gap = room.Width - b.Max[0]
			case 2: // top
				c = orb.Point{alongWall(s.Rand, i, b.Min[0], b.Max[0], hx), room.Height - hy}
				w.gap = room.Height - b.Max[1]
			default: // left
				c = orb.Point{hx, alongWall(s.Rand, i, b.Min[1], b.Max[1], hy)}
				w.gap = b.Min[0]
			}
			w.poses = append(w.poses, Pose{Center: c, Rotation: rot})
		}
		walls = append(walls, w)
	}
	sort.SliceStable(walls, func(i, j int) bool { return walls[i].gap < walls[j].gap })
	var out []Pose
	for _, w := range walls {
		out = append(out, w.poses...)
	}
	return out
}

func alongWall(rng *rand.Rand, i int, lo, hi, half float64) float64 {
	if i == 0 {
		return (lo + hi) / 2
	}
	return span(rng, lo+half, hi-half)
}

// beside returns poses for f on the four sides of anchor, rotated like the
// anchor, with a footprint gap of gap. The side the anchor faces comes first.
func beside(anchor, f *model.Furniture, gap float64) []Pose {
	offsets := [][2]float64{
		{anchor.Width/2 + gap + f.Width/2, 0},
		{0, anchor.Height/2 + gap + f.Height/2},
		{0, -(anchor.Height/2 + gap + f.Height/2)},
		{-(anchor.Width/2 + gap + f.Width/2), 0},
	}
	return framePoses(anchor, offsets, func(orb.Point) float64 { return anchor.Rotation })
}

// facing returns poses for f on the sides of target at footprint gap, each
// rotated to look at the target. The side the target faces comes first.
func facing(target, f *model.Furniture, gap float64) []Pose {
	offsets := [][2]float64{
		{target.Width/2 + gap + f.Width/2, 0},
		{-(target.Width/2 + gap + f.Width/2), 0},
		{0, target.Height/2 + gap + f.Width/2},
		{0, -(target.Height/2 + gap + f.Width/2)},
	}
	tc := target.Center()
	return framePoses(target, offsets, func(c orb.Point) float64 {
		return geom.Heading(c, tc)
	})
}

// framePoses converts offsets in the anchor's frame to world poses.
func framePoses(anchor *model.Furniture, offsets [][2]float64, rot func(orb.Point) float64) []Pose {
	c := anchor.Center()
	sin, cos := math.Sincos(anchor.Rotation * math.Pi / 180)
	poses := make([]Pose, len(offsets))
	for i, o := range offsets {
		p := orb.Point{c[0] + o[0]*cos - o[1]*sin, c[1] + o[0]*sin + o[1]*cos}
		poses[i] = Pose{Center: p, Rotation: rot(p)}
	}
	return poses
}
