package placement

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/roomlayout/internal/geom"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
)

func items(t *testing.T, rt *model.RuleTable, types ...model.FurnitureType) []*model.Furniture {
	t.Helper()
	var out []*model.Furniture
	for i, ft := range types {
		f, err := rt.NewItem(ft)
		require.NoError(t, err)
		f.ID = fmt.Sprintf("%s-%d", ft, i)
		out = append(out, f)
	}
	return out
}

func TestEveryTypeHasAStrategy(t *testing.T) {
	for _, ft := range model.AllTypes {
		_, ok := registry[ft]
		assert.True(t, ok, "no strategy for %s", ft)
	}
	assert.IsType(t, zoneStrategy{}, StrategyFor(model.FurnitureType("piano")))
}

func TestPlaceBedroom(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(8, 6)
	room.Doors = []model.Rect{{X: 6, Y: 0, Width: 1, Height: 0.1}}
	p := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(1)))

	l, unplaced := p.Place(items(t, rt, model.TypeNightstand, model.TypeWardrobe, model.TypeBed))
	assert.Empty(t, unplaced)
	require.Equal(t, 3, l.Len())
	assert.Equal(t, model.TypeBed, l.Items[0].Type, "anchors are placed first")

	e := rules.New(room, rt, rules.Options{})
	assert.True(t, e.Valid(l))
	assert.Equal(t, 0, e.HardViolations(l))
	for _, f := range l.Items {
		assert.False(t, e.InDoorZone(f), f.ID)
	}
}

func TestPlaceIsReproducible(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(10, 8)
	types := []model.FurnitureType{model.TypeSofa, model.TypeTVStand, model.TypeCoffeeTable, model.TypeBookshelf, model.TypeTable, model.TypeChair, model.TypeChair}

	a, _ := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(7))).Place(items(t, rt, types...))
	b, _ := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(7))).Place(items(t, rt, types...))
	assert.True(t, a.Equal(b, 0))
}

func TestPlaceChairsAroundTable(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(8, 8)
	p := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(3)))

	l, unplaced := p.Place(items(t, rt, model.TypeChair, model.TypeChair, model.TypeTable, model.TypeChair, model.TypeChair))
	require.Empty(t, unplaced)

	e := rules.New(room, rt, rules.Options{})
	table := l.ByType(model.TypeTable)[0]
	for _, c := range l.ByType(model.TypeChair) {
		assert.True(t, e.NearSatisfied(c, l), c.ID)
		assert.LessOrEqual(t, geom.Distance(c.Polygon(), table.BufferedPolygon()), 1.0, c.ID)
	}
	assert.True(t, e.Valid(l))
}

func TestPlaceTVFacesSofa(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(14, 10)
	p := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(5)))

	l, unplaced := p.Place(items(t, rt, model.TypeTVStand, model.TypeSofa))
	require.Empty(t, unplaced)
	e := rules.New(room, rt, rules.Options{})
	tv := l.ByType(model.TypeTVStand)[0]
	assert.True(t, e.FacingSatisfied(tv, l))
	assert.True(t, e.Valid(l))
}

func TestPlaceFixedItem(t *testing.T) {
	rt := model.DefaultRules()
	cs := &model.ConstraintSet{}
	cs.Fix("bookshelf-1", 3, 0.3, 0)
	opts := DefaultOptions()
	opts.Constraints = cs
	p := New(model.NewRoom(6, 5), rt, opts, rand.New(rand.NewSource(1)))

	l, unplaced := p.Place(items(t, rt, model.TypeDesk, model.TypeBookshelf))
	require.Empty(t, unplaced)
	assert.Equal(t, "bookshelf-1", l.Items[0].ID)
	assert.Equal(t, 3.0, l.Items[0].X)
	assert.Equal(t, 0.3, l.Items[0].Y)
}

func TestPlaceGrowsRoomOnlyWhenAllowed(t *testing.T) {
	rt := model.DefaultRules()

	p := New(model.NewRoom(2, 2), rt, DefaultOptions(), rand.New(rand.NewSource(1)))
	l, unplaced := p.Place(items(t, rt, model.TypeBed))
	assert.Equal(t, []string{"bed-0"}, unplaced)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 2.0, p.Room().Width)

	opts := DefaultOptions()
	opts.Grow = true
	p = New(model.NewRoom(2, 2), rt, opts, rand.New(rand.NewSource(1)))
	l, unplaced = p.Place(items(t, rt, model.TypeBed))
	assert.Empty(t, unplaced)
	require.Equal(t, 1, l.Len())
	assert.InDelta(t, 3.2, p.Room().Width, 1e-9)
	assert.InDelta(t, 2.8, p.Room().Height, 1e-9)
	assert.True(t, p.Room().Contains(l.Items[0].BufferedPolygon()))
}

func TestScatterStaysValid(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(12, 10)
	room.Zones = []model.Zone{{Name: "sleep", Function: "bedroom", Rect: model.Rect{X: 0, Y: 5, Width: 6, Height: 5}}}
	p := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(9)))

	l, unplaced := p.Scatter(items(t, rt, model.TypeBed, model.TypeWardrobe, model.TypeDesk, model.TypeShoeCabinet))
	assert.Empty(t, unplaced)
	assert.True(t, rules.New(room, rt, rules.Options{}).Valid(l))
}

// layoutKey buckets every item's position to half a metre, so layouts that
// differ only by a small offset share a key.
func layoutKey(l *model.Layout) string {
	key := ""
	for _, id := range l.SortedIDs() {
		f := l.Find(id)
		key += fmt.Sprintf("%s:%d,%d,%.0f|", id, int(f.X/0.5), int(f.Y/0.5), f.Rotation)
	}
	return key
}

func TestScatterProducesDistinctLayouts(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(10, 8)
	p := New(room, rt, DefaultOptions(), rand.New(rand.NewSource(5)))
	furniture := items(t, rt, model.TypeBed, model.TypeTable)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		l, unplaced := p.Scatter(furniture)
		require.Empty(t, unplaced)
		seen[layoutKey(l)] = true
	}
	assert.GreaterOrEqual(t, len(seen), 5, "scattered layouts are not diverse")
}

func TestFreeSpace(t *testing.T) {
	fs := newFreeSpace(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 3}})
	fs.exclude(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 3}})

	pts := fs.fits(2, 3)
	require.Len(t, pts, 1)
	assert.Equal(t, orb.Point{2, 0}, pts[0])
	assert.Empty(t, fs.fits(2.5, 1))

	fs.exclude(orb.Bound{Min: orb.Point{2, 1}, Max: orb.Point{4, 2}})
	assert.Len(t, fs.fits(2, 1), 2)
}

func TestPruneContainedKeepsOneOfIdentical(t *testing.T) {
	rects := []rect{{0, 0, 1, 1}, {0, 0, 1, 1}, {0, 0, 0.5, 0.5}}
	assert.Equal(t, []rect{{0, 0, 1, 1}}, pruneContained(rects))
}

func TestWallPosesTouchWalls(t *testing.T) {
	rt := model.DefaultRules()
	room := model.NewRoom(6, 4)
	s := &Site{Room: room, Rules: rt, Layout: model.NewLayout(), Rand: rand.New(rand.NewSource(1))}
	f, err := rt.NewItem(model.TypeBookshelf)
	require.NoError(t, err)

	poses := wallPoses(s, f, room.Bound(), 3)
	require.Len(t, poses, 12)
	for _, p := range poses {
		b := p.Apply(f).BufferedPolygon().Bound()
		touching := b.Min[0] < 1e-6 || b.Min[1] < 1e-6 || b.Max[0] > room.Width-1e-6 || b.Max[1] > room.Height-1e-6
		assert.True(t, touching, "pose %v is not against a wall", p)
		assert.True(t, room.Contains(p.Apply(f).BufferedPolygon()), "pose %v leaves the room", p)
	}
}
