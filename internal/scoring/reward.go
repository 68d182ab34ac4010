package scoring

import (
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/roomlayout/internal/collision"
	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/pathfind"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// Focus reward ranges.
const (
	windowRewardReach = 2.0
	nearRewardReach   = 1.5
)

// Reward scores layout for an external learning loop that is placing the item
// focusID. It is the layout's weighted scalar score scaled to roughly unit
// range plus per-item terms for the focus item: fitting cleanly, sitting near
// a window, being close to a required neighbour, facing its target, and being
// reachable from the first door. The result depends only on its arguments.
func Reward(room model.Room, rt *model.RuleTable, weights model.Weights, l *model.Layout, focusID string) float64 {
	s := New(room, rt, weights, Options{})
	total := s.Score(l) / 100

	f := l.Find(focusID)
	if f == nil {
		return total
	}
	total += fitReward(room, f, l)
	total += windowReward(room, f)
	total += nearReward(f, l)
	if rules.FacingTarget(f, l) != nil && s.engine.FacingSatisfied(f, l) {
		total++
	}
	total += pathReward(room, f, l)
	return total
}

// fitReward is 1 when f is inside the room and clear of every other item,
// -1 otherwise.
func fitReward(room model.Room, f *model.Furniture, l *model.Layout) float64 {
	if !room.Contains(f.BufferedPolygon()) {
		return -1
	}
	ix := collision.Build(room.Bound(), l)
	if ix.Collides(f.ID, f.BufferedPolygon()) {
		return -1
	}
	return 1
}

func windowReward(room model.Room, f *model.Furniture) float64 {
	best := math.Inf(1)
	for _, w := range room.Windows {
		best = math.Min(best, planar.Distance(f.Center(), w.Center()))
	}
	if best > windowRewardReach {
		return 0
	}
	return 1 - best/windowRewardReach
}

func nearReward(f *model.Furniture, l *model.Layout) float64 {
	best := math.Inf(1)
	for _, g := range l.Items {
		if g.ID != f.ID && f.Requires(g.Type) {
			best = math.Min(best, planar.Distance(f.Center(), g.Center()))
		}
	}
	if best >= nearRewardReach {
		return 0
	}
	return 1 - best/nearRewardReach
}

// pathReward is 1 minus the path length from the first door to f, as a
// fraction of the room's half perimeter in cells; 0 when unreachable.
func pathReward(room model.Room, f *model.Furniture, l *model.Layout) float64 {
	if len(room.Doors) == 0 {
		return 0
	}
	others := model.NewLayout()
	for _, g := range l.Items {
		if g.ID != f.ID {
			others.Add(g)
		}
	}
	pf := pathfind.New(room, 0.5)
	pf.Update(others)
	path, ok := pf.Path(room.Doors[0].Center(), f.Center())
	if !ok {
		return 0
	}
	cols, rows := pf.Size()
	return math.Max(0, 1-float64(len(path))/float64(cols+rows))
}

// FacingError returns how far f is from pointing at its facing target, in
// degrees, or 0 when f has no facing rule or no target is present.
func FacingError(f *model.Furniture, l *model.Layout) float64 {
	t := rules.FacingTarget(f, l)
	if t == nil {
		return 0
	}
	return geom.AngleDiff(f.Rotation, geom.Heading(f.Center(), t.Center()))
}
