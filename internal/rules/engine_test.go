package rules

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
)

func newItem(t *testing.T, rules *model.RuleTable, ft model.FurnitureType, id string, x, y float64) *model.Furniture {
	t.Helper()
	f, err := rules.NewItem(ft)
	require.NoError(t, err)
	f.ID = id
	f.SetPosition(x, y)
	return f
}

// gridScore rewards items whose corners sit on the half-metre grid.
func gridScore(l *model.Layout) float64 {
	s := 0.0
	for _, f := range l.Items {
		if math.Abs(f.X*2-math.Round(f.X*2)) < 1e-9 {
			s++
		}
		if math.Abs(f.Y*2-math.Round(f.Y*2)) < 1e-9 {
			s++
		}
	}
	return s
}

func assertAccepted(t *testing.T, e *Engine, l *model.Layout) {
	t.Helper()
	assert.True(t, e.Valid(l), "layout should be valid")
	for _, f := range l.Items {
		assert.GreaterOrEqual(t, f.Clearance, 0.0, f.ID)
		assert.GreaterOrEqual(t, f.Rotation, 0.0, f.ID)
		assert.Less(t, f.Rotation, 360.0, f.ID)
		assert.True(t, e.Room().Contains(f.BufferedPolygon()), f.ID)
	}
	for i, a := range l.Items {
		for _, b := range l.Items[i+1:] {
			assert.False(t, geom.Intersects(a.BufferedPolygon(), b.BufferedPolygon()), "%s intersects %s", a.ID, b.ID)
		}
	}
}

func TestFixCollisionsKeepsEarlierItem(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(3, 4), rules, Options{})
	a := newItem(t, rules, model.TypeWardrobe, "a", 0.5, 0.5)
	b := newItem(t, rules, model.TypeWardrobe, "b", 0.5, 0.8)
	l := model.NewLayout(a, b)

	rep := e.FixCollisions(l)
	// there is room above the first wardrobe for the second one
	assert.Equal(t, []string{"b"}, rep.Moved)
	assert.Equal(t, 0.5, l.Find("a").X)
	assertAccepted(t, e, l)
}

func TestFixCollisionsRemovesWhenNoRoom(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(2.2, 1.6), rules, Options{})
	a := newItem(t, rules, model.TypeWardrobe, "a", 0.5, 0.5)
	b := newItem(t, rules, model.TypeWardrobe, "b", 0.5, 0.5)
	l := model.NewLayout(a, b)

	rep := e.FixCollisions(l)
	assert.Equal(t, []string{"b"}, rep.Removed)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "a", l.Items[0].ID)
}

func TestFixCollisionsFixedItemsWin(t *testing.T) {
	rules := model.DefaultRules()
	cs := &model.ConstraintSet{}
	cs.Fix("b", 0.5, 0.5, 0)
	e := New(model.NewRoom(2.2, 1.6), rules, Options{Constraints: cs})
	l := model.NewLayout(
		newItem(t, rules, model.TypeWardrobe, "a", 0.5, 0.5),
		newItem(t, rules, model.TypeWardrobe, "b", 0.5, 0.5),
	)

	rep := e.FixCollisions(l)
	assert.Equal(t, []string{"a"}, rep.Removed)
	assert.Equal(t, "b", l.Items[0].ID)
}

func TestFixCollisionsClampsIntoRoom(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(5, 5), rules, Options{})
	l := model.NewLayout(newItem(t, rules, model.TypeChair, "c", -1, 4.8))

	rep := e.FixCollisions(l)
	assert.Equal(t, []string{"c"}, rep.Moved)
	assertAccepted(t, e, l)
}

func TestFixCollisionsDropsInvalidItems(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(5, 5), rules, Options{})
	bad := newItem(t, rules, model.TypeChair, "bad", 1, 1)
	bad.Clearance = -0.5
	l := model.NewLayout(bad)

	rep := e.FixCollisions(l)
	assert.Equal(t, []string{"bad"}, rep.Removed)
	assert.Equal(t, 0, l.Len())
}

// A bed with a 2 m door keep-out is pushed out of the door zone.
func TestDoorClearanceScenario(t *testing.T) {
	rules := model.DefaultRules()
	bedRule, _ := rules.Rule(model.TypeBed)
	bedRule.MinDoorDistance = 2.0
	rules = rules.WithRule(model.TypeBed, bedRule)

	room := model.NewRoom(12, 10)
	room.Doors = []model.Rect{{X: 5, Y: 0, Width: 2, Height: 1}}
	e := New(room, rules, Options{Score: gridScore})

	l := model.NewLayout(newItem(t, rules, model.TypeBed, "bed", 5, 1))
	out, rep := e.Apply(l)

	bed := out.Find("bed")
	require.NotNil(t, bed, "bed should be moved, not removed")
	assert.Contains(t, rep.Moved, "bed")
	zone := geom.Buffer(room.Doors[0].Ring(), 2.0, model.BufferSegments)
	assert.False(t, geom.Intersects(bed.BufferedPolygon(), zone))
	assertAccepted(t, e, out)
}

func TestDoorClearanceRemovesWhenBlocked(t *testing.T) {
	rules := model.DefaultRules()
	room := model.NewRoom(3, 3)
	room.Doors = []model.Rect{{X: 1, Y: 0, Width: 1, Height: 0.1}}
	e := New(room, rules, Options{})

	l := model.NewLayout(newItem(t, rules, model.TypeBed, "bed", 0.5, 0.65))
	rep := e.FixDoorClearance(l)
	assert.Equal(t, []string{"bed"}, rep.Removed)
	assert.Equal(t, 0, l.Len())
}

func TestPairClearanceMonotonic(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(8, 8), rules, Options{})
	sofa := newItem(t, rules, model.TypeSofa, "sofa", 2, 2)
	tv := newItem(t, rules, model.TypeTVStand, "tv", 2, 3.9)
	l := model.NewLayout(sofa, tv)

	before := geom.Distance(sofa.Polygon(), tv.Polygon())
	require.Less(t, before, rules.PairClearance(model.TypeSofa, model.TypeTVStand))
	start := tv.Center()

	rep := e.FixPairClearance(l)
	if len(rep.Removed) > 0 {
		assert.Equal(t, 1, l.Len())
		return
	}
	after := geom.Distance(l.Find("sofa").Polygon(), l.Find("tv").Polygon())
	assert.Greater(t, after, before)
	assert.GreaterOrEqual(t, after, 2.0-geom.Eps)
	moved := l.Find("tv").Center()
	assert.LessOrEqual(t, math.Hypot(moved[0]-start[0], moved[1]-start[1]), MaxNudges*NudgeStep+1e-9)
	assert.Equal(t, sofa.X, l.Find("sofa").X, "the earlier item stays put")
}

func TestRepairRelationsRehomesItem(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(8, 6), rules, Options{})
	bed := newItem(t, rules, model.TypeBed, "bed", 1, 1)
	wardrobe := newItem(t, rules, model.TypeWardrobe, "wardrobe", 1, 4.5)
	night := newItem(t, rules, model.TypeNightstand, "night", 6.5, 4.5)
	l := model.NewLayout(bed, wardrobe, night)
	require.False(t, e.NearSatisfied(night, l))

	rep := e.RepairRelations(l)
	assert.Contains(t, rep.Moved, "night")
	assert.True(t, e.NearSatisfied(l.Find("night"), l))
	assert.Empty(t, rep.Synthesized)
	assertAccepted(t, e, l)
}

func TestRepairRelationsSynthesizesMissingNeighbour(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(8, 6), rules, Options{})
	l := model.NewLayout(newItem(t, rules, model.TypeSofa, "sofa", 3, 2.5))

	rep := e.RepairRelations(l)
	require.Len(t, rep.Synthesized, 1)
	coffee := l.Find(rep.Synthesized[0])
	require.NotNil(t, coffee)
	assert.Equal(t, model.TypeCoffeeTable, coffee.Type)
	assert.Equal(t, "sofa-coffee_table", coffee.ID)
	assert.True(t, e.NearSatisfied(l.Find("sofa"), l))
	assert.True(t, e.NearSatisfied(coffee, l))
	assertAccepted(t, e, l)
}

// A sofa facing away from the TV is turned toward it.
func TestFacingScenario(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(15, 12), rules, Options{Score: gridScore})
	sofa := newItem(t, rules, model.TypeSofa, "sofa", 3, 5)
	sofa.SetRotation(180)
	tv := newItem(t, rules, model.TypeTVStand, "tv", 10, 5)
	l := model.NewLayout(sofa, tv)

	out, _ := e.Apply(l)
	s, tvOut := out.Find("sofa"), out.Find("tv")
	require.NotNil(t, s)
	require.NotNil(t, tvOut)

	heading := geom.Heading(s.Center(), tvOut.Center())
	assert.LessOrEqual(t, geom.AngleDiff(s.Rotation, heading), 30.0)
	assert.True(t, e.FacingSatisfied(tvOut, out))
	assertAccepted(t, e, out)
}

// A table with four chairs gets them arranged around it.
func TestDiningGroupScenario(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(8, 8), rules, Options{})
	table := newItem(t, rules, model.TypeTable, "table", 3.2, 3.5)
	l := model.NewLayout(table)
	for i := 0; i < 4; i++ {
		l.Add(newItem(t, rules, model.TypeChair, fmt.Sprintf("chair%d", i), 0.5+float64(i)*1.5, 0.5))
	}

	out, n := e.ArrangeGroup(l, "table")
	require.NotNil(t, out)
	assert.Equal(t, 4, n)

	tb := out.Find("table").BufferedPolygon()
	chairs := out.ByType(model.TypeChair)
	require.Len(t, chairs, 4)
	for _, c := range chairs {
		assert.LessOrEqual(t, geom.Distance(c.Polygon(), tb), 1.0, c.ID)
		assert.True(t, e.NearSatisfied(c, out), c.ID)
	}
	for i, a := range chairs {
		for _, b := range chairs[i+1:] {
			assert.False(t, geom.Intersects(a.BufferedPolygon(), b.BufferedPolygon()))
		}
	}
	assertAccepted(t, e, out)

	// the original layout is untouched
	assert.Equal(t, 0.5, l.Find("chair0").Y)
}

func TestGroupSlotsFaceAnchor(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(8, 8), rules, Options{})
	table := newItem(t, rules, model.TypeTable, "table", 3, 3)

	slots := e.GroupSlots(table, 0.5, 0.5, 0.2, 6)
	require.Len(t, slots, 6)
	for _, s := range slots {
		assert.InDelta(t, 0, geom.AngleDiff(s.Rotation, geom.Heading(s.Center, table.Center())), 1e-9)
	}
	assert.Len(t, e.GroupSlots(table, 0.5, 0.5, 0.2, 2), 2)
	assert.Nil(t, e.GroupSlots(table, 0.5, 0.5, 0.2, 0))
}

func TestSoftPassKeepsOnlyImprovements(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(6, 6), rules, Options{Score: gridScore})
	l := model.NewLayout(newItem(t, rules, model.TypeShoeCabinet, "shoe", 2.13, 2.77))

	rep := e.SoftPass(l)
	assert.Equal(t, []string{"shoe"}, rep.Moved)
	assert.Equal(t, 2.0, gridScore(l))

	again := e.SoftPass(l)
	assert.False(t, again.Changed())
}

func TestSoftPassDisabledWithoutScore(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(6, 6), rules, Options{})
	l := model.NewLayout(newItem(t, rules, model.TypeShoeCabinet, "shoe", 2.13, 2.77))
	assert.False(t, e.SoftPass(l).Changed())
	assert.Equal(t, 2.13, l.Items[0].X)
}

func randomLayout(t *testing.T, rng *rand.Rand, rules *model.RuleTable, room model.Room, n int) *model.Layout {
	l := model.NewLayout()
	types := model.AllTypes
	for i := 0; i < n; i++ {
		ft := types[rng.Intn(len(types))]
		f := newItem(t, rules, ft, fmt.Sprintf("%s%d", ft, i), rng.Float64()*room.Width, rng.Float64()*room.Height)
		f.SetRotation(float64(rng.Intn(4)) * 90)
		l.Add(f)
	}
	return l
}

func TestApplyIsIdempotentAndAccepted(t *testing.T) {
	rules := model.DefaultRules()
	room := model.NewRoom(10, 8)
	room.Doors = []model.Rect{{X: 3, Y: 0, Width: 1, Height: 0.1}}
	e := New(room, rules, Options{Score: gridScore})
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 6; trial++ {
		l := randomLayout(t, rng, rules, room, 2+rng.Intn(4))
		once, _ := e.Apply(l)
		twice, rep := e.Apply(once)

		assert.True(t, once.Equal(twice, 0), "trial %d: second application changed the layout", trial)
		assert.False(t, rep.Changed(), "trial %d", trial)
		assertAccepted(t, e, once)
		assert.Equal(t, 0, e.HardViolations(once), "trial %d", trial)
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	rules := model.DefaultRules()
	e := New(model.NewRoom(5, 5), rules, Options{Score: gridScore})
	l := model.NewLayout(newItem(t, rules, model.TypeChair, "c", -1, -1))
	_, _ = e.Apply(l)
	assert.Equal(t, -1.0, l.Items[0].X)
}

func TestApplyRecordsRuleStats(t *testing.T) {
	rules := model.DefaultRules()
	stats := NewStats()
	e := New(model.NewRoom(6, 6), rules, Options{Score: gridScore, Stats: stats})

	a := newItem(t, rules, model.TypeWardrobe, "a", 2, 2)
	b := newItem(t, rules, model.TypeWardrobe, "b", 2, 2)
	_, rep := e.Apply(model.NewLayout(a, b))

	require.Contains(t, rep.Rules, RuleCollisions)
	assert.GreaterOrEqual(t, rep.Rules[RuleCollisions].Calls, 1)
	assert.GreaterOrEqual(t, rep.Rules[RuleCollisions].Hits, 1)
	assert.LessOrEqual(t, rep.Rules[RuleCollisions].Hits, rep.Rules[RuleCollisions].Calls)
	assert.GreaterOrEqual(t, rep.Rules[RuleCollisions].Items, 1)
	for _, name := range []string{RuleDoorClearance, RulePairClearance, RuleRelations, RuleSoft} {
		assert.Equal(t, rep.Rules[RuleCollisions].Calls, rep.Rules[name].Calls, name)
	}
	assert.Equal(t, rep.Rules, stats.Snapshot())

	// a second engine sharing the collector adds to it
	_, rep2 := New(model.NewRoom(6, 6), rules, Options{Stats: stats}).Apply(model.NewLayout(a.Clone()))
	assert.NotContains(t, rep2.Rules, RuleSoft, "no soft pass without a score")
	snap := stats.Snapshot()
	assert.Equal(t, rep.Rules[RuleCollisions].Calls+rep2.Rules[RuleCollisions].Calls, snap[RuleCollisions].Calls)
	assert.Equal(t, rep.Rules[RuleSoft], snap[RuleSoft])
}

func TestNilStatsIgnoresCounts(t *testing.T) {
	var s *Stats
	s.Add(map[string]RuleStat{RuleSoft: {Calls: 1}})
	assert.Nil(t, s.Snapshot())
}
