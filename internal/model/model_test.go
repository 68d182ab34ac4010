package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/roomlayout/internal/geom"
)

func TestParseFurnitureType(t *testing.T) {
	tests := []struct {
		in   string
		want FurnitureType
	}{
		{"bed", TypeBed},
		{"TV_STAND", TypeTVStand},
		{"tv stand", TypeTVStand},
		{"Coffee-Table", TypeCoffeeTable},
		{"television", TypeTVStand},
		{"dining table", TypeTable},
	}
	for _, tt := range tests {
		got, err := ParseFurnitureType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFurnitureType("piano")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestFurnitureTypeLabel(t *testing.T) {
	assert.Equal(t, "TV Stand", TypeTVStand.Label())
	assert.Equal(t, "Coffee Table", TypeCoffeeTable.Label())
	assert.Equal(t, "Bed", TypeBed.Label())
}

func TestFurniturePolygonCacheFollowsPose(t *testing.T) {
	f := NewFurniture(TypeDesk, 1, 1, 2, 1)
	first := f.Polygon().Bound()
	assert.InDelta(t, 1.0, first.Min[0], 1e-9)

	f.X = 3
	moved := f.Polygon().Bound()
	assert.InDelta(t, 3.0, moved.Min[0], 1e-9)

	f.SetRotation(90)
	rotated := f.Polygon().Bound()
	assert.InDelta(t, 0.5, rotated.Min[1], 1e-9)
	assert.InDelta(t, 1.0, rotated.Max[0]-rotated.Min[0], 1e-9)

	f.Clearance = 0.5
	buf := f.BufferedPolygon().Bound()
	assert.InDelta(t, 0.0, buf.Min[1], 1e-9)
}

func TestFurnitureBufferedPolygonRoundsCorners(t *testing.T) {
	f := NewFurniture(TypeDesk, 1, 1, 2, 1)
	f.Clearance = 0.5

	buf := f.BufferedPolygon()
	assert.GreaterOrEqual(t, len(buf), 4*BufferSegments+1)
	// rectangle, four edge strips and a full disk of radius 0.5
	exact := 2.0 + 6*0.5 + math.Pi*0.25
	assert.InDelta(t, exact, geom.Area(buf), 0.01)
	assert.Less(t, geom.Area(buf), exact)
}

func TestFurnitureSetRotationNormalizes(t *testing.T) {
	f := NewFurniture(TypeSofa, 0, 0, 2, 1)
	f.SetRotation(-90)
	assert.Equal(t, 270.0, f.Rotation)
	f.SetRotation(720)
	assert.Equal(t, 0.0, f.Rotation)
}

func TestFurnitureCloneIsIndependent(t *testing.T) {
	rules := DefaultRules()
	f, err := rules.NewItem(TypeSofa)
	require.NoError(t, err)

	cp := f.Clone()
	cp.MustNear[0] = TypeBed
	cp.Facing.Threshold = 5
	cp.MoveBy(1, 1)

	assert.Equal(t, TypeCoffeeTable, f.MustNear[0])
	assert.Equal(t, 30.0, f.Facing.Threshold)
	assert.Equal(t, 0.0, f.X)
	assert.Equal(t, f.ID, cp.ID)
}

func TestFurnitureValidate(t *testing.T) {
	f := NewFurniture(TypeChair, 0, 0, 0.5, 0.5)
	require.NoError(t, f.Validate())

	f.Clearance = -1
	assert.True(t, errors.Is(f.Validate(), ErrGeometry))

	f.Clearance = 0
	f.Rotation = 360
	assert.True(t, errors.Is(f.Validate(), ErrGeometry))

	f.Rotation = 0
	f.Width = 0
	assert.True(t, errors.Is(f.Validate(), ErrGeometry))

	f.Width = 1
	f.Type = "piano"
	assert.True(t, errors.Is(f.Validate(), ErrConfiguration))
}

func TestRoomContainsAndWalls(t *testing.T) {
	room := NewRoom(10, 8)
	in := NewFurniture(TypeBed, 0, 0, 2, 1.6)
	assert.True(t, room.Contains(in.Polygon()))

	in.Clearance = 0.1
	assert.False(t, room.Contains(in.BufferedPolygon()))

	walls := room.WallSegments()
	assert.Equal(t, orb.Point{10, 0}, walls[0].B)
	assert.Equal(t, orb.Point{0, 8}, walls[2].B)
	assert.Equal(t, orb.Point{0, 0}, walls[3].B)
}

func TestRoomZones(t *testing.T) {
	room := NewRoom(8, 6)
	room.Zones = []Zone{
		{Name: "sleep", Function: "bedroom", Rect: Rect{X: 0, Y: 0, Width: 4, Height: 6}},
		{Name: "eat", Function: "dining", Rect: Rect{X: 4, Y: 0, Width: 4, Height: 6}},
	}
	require.Len(t, room.ZonesFor("dining"), 1)
	assert.Empty(t, room.ZonesFor("office"))

	b := room.PlacementBound("dining")
	assert.Equal(t, 4.0, b.Min[0])
	assert.Equal(t, room.Bound(), room.PlacementBound("office"))
}

func TestRoomExpandToFitIsMonotonic(t *testing.T) {
	room := NewRoom(3, 3)
	assert.False(t, room.ExpandToFit(2, 2))
	assert.True(t, room.ExpandToFit(4, 1))
	assert.Equal(t, 4.0, room.Width)
	assert.Equal(t, 3.0, room.Height)
}

func TestRoomValidate(t *testing.T) {
	assert.NoError(t, NewRoom(1, 1).Validate())
	assert.True(t, errors.Is(NewRoom(0, 1).Validate(), ErrConfiguration))
}

func TestRectEncoding(t *testing.T) {
	r := Rect{X: 5, Y: 0, Width: 2, Height: 1}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `[5,0,2,1]`, string(data))

	var back Rect
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	var room Room
	require.NoError(t, yaml.Unmarshal([]byte("width: 12\nheight: 10\ndoors:\n  - [5, 0, 2, 1]\n"), &room))
	require.Len(t, room.Doors, 1)
	assert.Equal(t, r, room.Doors[0])

	out, err := yaml.Marshal(room)
	require.NoError(t, err)
	var again Room
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, room.Doors, again.Doors)

	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &back))
}

func TestLayoutRoundTrip(t *testing.T) {
	rules := DefaultRules()
	l := NewLayout(
		&Furniture{ID: "a", Type: TypeSofa, X: 1.123456789012, Y: 2.5, Width: 2.2, Height: 0.9, Rotation: 33.3333333333, Clearance: 0.5},
		&Furniture{ID: "b", Type: TypeTVStand, X: 0.1 + 0.2, Y: math.Pi, Width: 1.6, Height: 0.45, Rotation: 359.999999, Clearance: 0.4},
	)

	data, err := MarshalLayout(l)
	require.NoError(t, err)
	back, err := ParseLayout(data, rules)
	require.NoError(t, err)

	assert.True(t, l.Equal(back, 1e-9))
	assert.Equal(t, []FurnitureType{TypeCoffeeTable}, back.Items[0].MustNear)
	require.NotNil(t, back.Items[1].Facing)
	assert.Equal(t, TypeSofa, back.Items[1].Facing.Target)
}

func TestParseLayoutRejectsBadInput(t *testing.T) {
	_, err := ParseLayout([]byte(`[{"id":"a","type":"piano","width":1,"height":1}]`), nil)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = ParseLayout([]byte(`[{"id":"a","type":"bed","width":1,"height":1},{"id":"a","type":"bed","width":1,"height":1}]`), nil)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = ParseLayout([]byte(`{`), nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestLayoutCloneAndRemove(t *testing.T) {
	l := NewLayout(NewFurniture(TypeBed, 0, 0, 2, 1.6), NewFurniture(TypeChair, 3, 3, 0.5, 0.5))
	cp := l.Clone()
	cp.Items[0].X = 5

	assert.Equal(t, 0.0, l.Items[0].X)
	assert.True(t, cp.Remove(cp.Items[1].ID))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, cp.Len())
	assert.False(t, cp.Remove("missing"))
	assert.Equal(t, map[FurnitureType]int{TypeBed: 1, TypeChair: 1}, l.CountByType())
}

func TestRuleTable(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())

	assert.Equal(t, 2.0, rules.PairClearance(TypeSofa, TypeTVStand))
	assert.Equal(t, 2.0, rules.PairClearance(TypeTVStand, TypeSofa))
	assert.Equal(t, 0.0, rules.PairClearance(TypeChair, TypeChair))
	assert.Equal(t, 1.0, rules.NearDistance(TypeChair))
	assert.Equal(t, 1.2, rules.DoorDistance(TypeBed))
	assert.Equal(t, 1.0, rules.DoorDistance(TypeChair))

	broken := rules.WithRule(TypeDesk, TypeRule{})
	_, _, err := broken.DefaultSize(TypeDesk)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, _, err = rules.DefaultSize(TypeDesk)
	assert.NoError(t, err, "WithRule must not modify the original table")
}

func TestRuleTableValidateRejectsUnknownTypes(t *testing.T) {
	rules := DefaultRules().WithRule(TypeBed, TypeRule{Width: 2, Height: 2, MustNear: []FurnitureType{"piano"}})
	assert.True(t, errors.Is(rules.Validate(), ErrConfiguration))
}

func TestManifestExpand(t *testing.T) {
	rules := DefaultRules()
	m := Manifest{
		{Type: TypeTable, Count: 1, ID: "table"},
		{Type: TypeChair, Count: 2, ID: "chair"},
		{Type: TypeBed, Count: 1, Width: 1.8, Height: 1.4, Clearance: Float(0)},
	}
	items, err := m.Expand(rules)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, 4, m.Total())

	assert.Equal(t, "table", items[0].ID)
	assert.Equal(t, "chair-1", items[1].ID)
	assert.Equal(t, "chair-2", items[2].ID)
	assert.Equal(t, "bed-1", items[3].ID)
	assert.Equal(t, 0.4, items[0].Clearance)
	assert.Equal(t, 1.8, items[3].Width)
	assert.Equal(t, 0.0, items[3].Clearance)
	assert.Equal(t, []FurnitureType{TypeDesk, TypeTable}, items[1].MustNear)
}

func TestManifestValidate(t *testing.T) {
	rules := DefaultRules().WithRule(TypeDesk, TypeRule{})

	err := Manifest{{Type: TypeDesk, Count: 1}}.Validate(rules)
	assert.True(t, errors.Is(err, ErrConfiguration))

	// an explicit size makes the missing default irrelevant
	assert.NoError(t, Manifest{{Type: TypeDesk, Count: 1, Width: 1, Height: 1}}.Validate(rules))

	err = Manifest{{Type: "piano", Count: 1}}.Validate(rules)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestManifestRejectsDuplicateIDs(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name string
		m    Manifest
	}{
		{"same id twice", Manifest{
			{Type: TypeDesk, Count: 1, ID: "desk"},
			{Type: TypeDesk, Count: 1, ID: "desk"},
		}},
		{"counted id collides", Manifest{
			{Type: TypeChair, Count: 2, ID: "chair"},
			{Type: TypeChair, Count: 1, ID: "chair-1"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.m.Validate(rules), ErrConfiguration))
			_, err := tt.m.Expand(rules)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}

	// unnamed entries are numbered around named ones
	items, err := Manifest{
		{Type: TypeChair, Count: 1, ID: "chair-1"},
		{Type: TypeChair, Count: 1},
	}.Expand(rules)
	require.NoError(t, err)
	assert.Equal(t, "chair-1", items[0].ID)
	assert.Equal(t, "chair-2", items[1].ID)
}

func TestConstraintSet(t *testing.T) {
	a := &Furniture{ID: "a", Type: TypeBed, X: 1, Y: 1, Width: 2, Height: 2}
	b := &Furniture{ID: "b", Type: TypeWardrobe, X: 5, Y: 1, Width: 2, Height: 2}
	l := NewLayout(a, b)

	var cs ConstraintSet
	cs.Fix("a", 1.05, 1, 0)
	cs.Relate("a", "b", 3, 5)
	assert.True(t, cs.Satisfied(l))
	assert.True(t, cs.IsFixed("a"))
	assert.False(t, cs.IsFixed("b"))

	a.X = 1.5
	errs := cs.Check(l)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrConstraintViolation))

	a.X = 1
	b.X = 9
	assert.False(t, cs.Satisfied(l))

	assert.NoError(t, cs.Validate(l))
	cs.Fix("ghost", 0, 0, 0)
	assert.True(t, errors.Is(cs.Validate(l), ErrConfiguration))

	var nilSet *ConstraintSet
	assert.True(t, nilSet.Satisfied(l))
}

func TestWeightsDefaults(t *testing.T) {
	w := Weights{TermComfort: 2}
	assert.Equal(t, 2.0, w.Get(TermComfort))
	assert.Equal(t, 1.0, w.Get(TermAesthetics))
	assert.Equal(t, 0.0, w.Get(TermCompleteness))
}
