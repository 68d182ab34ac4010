package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/roomlayout/internal/model"
)

func item(t *testing.T, ft model.FurnitureType, id string, x, y float64) *model.Furniture {
	t.Helper()
	f, err := model.DefaultRules().NewItem(ft)
	require.NoError(t, err)
	f.ID = id
	f.SetPosition(x, y)
	return f
}

func TestComfort(t *testing.T) {
	room := model.NewRoom(10, 10)
	room.Windows = []model.Rect{{X: 0.5, Y: 0.75, Width: 1, Height: 0.1}}
	s := New(room, model.DefaultRules(), nil, Options{})

	bed := item(t, model.TypeBed, "bed", 0, 0)
	assert.InDelta(t, WindowReach, s.Comfort(model.NewLayout(bed)), 1e-9)

	sofa := item(t, model.TypeSofa, "sofa", 4, 5)
	tv := item(t, model.TypeTVStand, "tv", 4.3, 8.225)
	assert.InDelta(t, ViewingBonus, New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{}).Comfort(model.NewLayout(sofa, tv)), 1e-9)

	tv.SetPosition(4.3, 7.225) // 2 m away
	assert.InDelta(t, ViewingBonus-ViewingFalloff, New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{}).Comfort(model.NewLayout(sofa, tv)), 1e-9)
}

func TestSpaceUtilization(t *testing.T) {
	s := New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{})
	assert.InDelta(t, 3.2, s.SpaceUtilization(model.NewLayout(item(t, model.TypeBed, "bed", 1, 1))), 1e-9)
	assert.Equal(t, 0.0, s.SpaceUtilization(model.NewLayout()))
}

func TestAesthetics(t *testing.T) {
	s := New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{})

	centered := item(t, model.TypeChair, "c", 4.75, 2)
	assert.InDelta(t, 100, s.Aesthetics(model.NewLayout(centered)), 1e-9)

	off := item(t, model.TypeChair, "c", 1.23, 2.37)
	assert.InDelta(t, 0, s.Aesthetics(model.NewLayout(off)), 1e-9)

	a := item(t, model.TypeChair, "a", 1.25+0.01, 2.37)
	b := item(t, model.TypeChair, "b", 8.25-0.01, 2.37)
	assert.InDelta(t, 50, s.Aesthetics(model.NewLayout(a, b)), 1e-9)

	assert.Equal(t, 0.0, s.Aesthetics(model.NewLayout()))
}

func TestSpacingPenalty(t *testing.T) {
	s := New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{})
	a := item(t, model.TypeChair, "a", 1, 1)
	b := item(t, model.TypeChair, "b", 1.6, 1)
	assert.InDelta(t, -0.2, s.Spacing(model.NewLayout(a, b)), 1e-9)

	b.SetPosition(3, 1)
	assert.Equal(t, 0.0, s.Spacing(model.NewLayout(a, b)))
}

func TestRelationsAndCompleteness(t *testing.T) {
	s := New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{Requested: 4})
	sofa := item(t, model.TypeSofa, "sofa", 2, 2)
	assert.Equal(t, 0.0, s.Relations(model.NewLayout(sofa)))

	coffee := item(t, model.TypeCoffeeTable, "coffee", 2.6, 3.9)
	l := model.NewLayout(sofa, coffee)
	assert.Equal(t, 100.0, s.Relations(l))
	assert.Equal(t, 50.0, s.Completeness(l))

	assert.Equal(t, 100.0, New(model.NewRoom(10, 10), model.DefaultRules(), nil, Options{}).Completeness(l))
	assert.Equal(t, 100.0, s.Relations(model.NewLayout()))
}

func TestAccessibility(t *testing.T) {
	room := model.NewRoom(6, 4)
	room.Doors = []model.Rect{{X: 0, Y: 1.5, Width: 0.1, Height: 1}}
	s := New(room, model.DefaultRules(), nil, Options{})
	assert.Equal(t, 10.0, s.Accessibility(model.NewLayout()))

	wall := model.NewFurniture(model.TypeBookshelf, 1, 0, 0.5, 4)
	assert.Equal(t, -20.0, s.Accessibility(model.NewLayout(wall)))
}

func TestScalarAndVector(t *testing.T) {
	b := Breakdown{Comfort: 1, Accessibility: 2, SpaceUtilization: 3, Aesthetics: 4, Spacing: -1, Relations: 50, Completeness: 80}
	assert.InDelta(t, 1+2+3+4-1+50, Scalar(b, model.DefaultWeights()), 1e-9)
	assert.InDelta(t, 2*1+2+3+4-1+50+0.5*80, Scalar(b, model.Weights{model.TermComfort: 2, model.TermCompleteness: 0.5}), 1e-9)
	assert.Equal(t, []float64{1, 3, 4, 2}, Vector(b))
	assert.Len(t, b.Terms(), 7)
}

func TestScoreIsDeterministic(t *testing.T) {
	room := model.NewRoom(8, 6)
	room.Doors = []model.Rect{{X: 3, Y: 0, Width: 1, Height: 0.1}}
	room.Windows = []model.Rect{{X: 0, Y: 2, Width: 0.1, Height: 1}}
	l := model.NewLayout(
		item(t, model.TypeBed, "bed", 0.6, 3),
		item(t, model.TypeWardrobe, "wardrobe", 5, 4.5),
		item(t, model.TypeSofa, "sofa", 4, 1.5),
	)
	s := New(room, model.DefaultRules(), nil, Options{})
	assert.Equal(t, s.Score(l), s.Score(l))
	assert.Equal(t, s.Score(l), New(room, model.DefaultRules(), nil, Options{}).Score(l.Clone()))
}

func TestReward(t *testing.T) {
	room := model.NewRoom(8, 6)
	room.Doors = []model.Rect{{X: 3, Y: 0, Width: 1, Height: 0.1}}
	rt := model.DefaultRules()
	l := model.NewLayout(
		item(t, model.TypeSofa, "sofa", 2, 3),
		item(t, model.TypeCoffeeTable, "coffee", 2.6, 4.7),
	)

	r1 := Reward(room, rt, nil, l, "coffee")
	r2 := Reward(room, rt, nil, l.Clone(), "coffee")
	assert.Equal(t, r1, r2)

	base := New(room, rt, nil, Options{}).Score(l) / 100
	assert.InDelta(t, base, Reward(room, rt, nil, l, "missing"), 1e-12)
	assert.Greater(t, r1, base)
}

func TestFocusTerms(t *testing.T) {
	room := model.NewRoom(8, 6)
	room.Windows = []model.Rect{{X: 0, Y: 2, Width: 0.1, Height: 1}}

	a := item(t, model.TypeChair, "a", 1, 1)
	b := item(t, model.TypeChair, "b", 1.2, 1)
	assert.Equal(t, -1.0, fitReward(room, a, model.NewLayout(a, b)))
	b.SetPosition(4, 4)
	assert.Equal(t, 1.0, fitReward(room, a, model.NewLayout(a, b)))

	desk := model.NewFurniture(model.TypeDesk, 0, 2, 0.1, 1)
	assert.InDelta(t, 1, windowReward(room, desk), 1e-9)
	desk.SetPosition(5, 2)
	assert.Equal(t, 0.0, windowReward(room, desk))

	sofa := item(t, model.TypeSofa, "sofa", 2, 2)
	coffee := item(t, model.TypeCoffeeTable, "coffee", 2.6, 2.15)
	assert.InDelta(t, 1, nearReward(coffee, model.NewLayout(sofa, coffee)), 1e-9)
}

func TestFacingError(t *testing.T) {
	sofa := item(t, model.TypeSofa, "sofa", 0, 0)
	sofa.SetRotation(180)
	tv := item(t, model.TypeTVStand, "tv", 5.3, 0.225)
	l := model.NewLayout(sofa, tv)
	assert.InDelta(t, 180, FacingError(sofa, l), 1e-9)

	sofa.SetRotation(0)
	assert.InDelta(t, 0, FacingError(sofa, l), 1e-9)
	assert.Equal(t, 0.0, FacingError(item(t, model.TypeBed, "bed", 0, 0), l))
}
