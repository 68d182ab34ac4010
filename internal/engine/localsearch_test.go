package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/rules"
)

func livingRoom(t *testing.T, p *Problem) *model.Layout {
	t.Helper()
	l := model.NewLayout(makeTestItems(t, p.Rules, model.TypeSofa, model.TypeCoffeeTable)...)
	l.Items[0].SetPosition(1.13, 1.37)
	l.Items[1].SetPosition(6.13, 5.37)
	return l
}

func TestTryFailImproves(t *testing.T) {
	p := makeTestProblem(model.NewRoom(10, 8), 2)
	l := livingRoom(t, p)
	ev := p.newEvaluator()
	before := ev.scorer.Score(l)

	out := p.Refine(l, model.RefinerTryFail, 40)
	assert.Greater(t, ev.scorer.Score(out), before)
	assert.True(t, rules.New(p.Room, p.Rules, rules.Options{}).Valid(out))
	assert.NotNil(t, out.Find("sofa-0"))
	assert.NotNil(t, out.Find("coffee_table-1"))

	// the input is left alone
	assert.Equal(t, 1.13, l.Items[0].X)
}

func TestTryFailRespectsBudget(t *testing.T) {
	p := makeTestProblem(model.NewRoom(10, 8), 2)
	l := livingRoom(t, p)
	assert.True(t, p.Refine(l, model.RefinerTryFail, 0).Equal(l, 0))
}

func TestNelderMeadKeepsFixedItems(t *testing.T) {
	cs := &model.ConstraintSet{}
	cs.Fix("bookshelf-0", 3, 0.3, 0)
	p := makeTestProblem(model.NewRoom(8, 6), 2)
	p.Constraints = cs

	l := model.NewLayout(makeTestItems(t, p.Rules, model.TypeBookshelf, model.TypeShoeCabinet)...)
	l.Items[0].SetPosition(3, 0.3)
	l.Items[1].SetPosition(5.13, 3.37)
	ev := p.newEvaluator()
	require.True(t, ev.checks.Valid(l))
	before := ev.scorer.Score(l)

	out := p.Refine(l, model.RefinerNelderMead, 30)
	require.Equal(t, 2, out.Len())
	shelf := out.Find("bookshelf-0")
	require.NotNil(t, shelf)
	assert.Equal(t, 3.0, shelf.X)
	assert.Equal(t, 0.3, shelf.Y)
	assert.GreaterOrEqual(t, ev.scorer.Score(out), before)
	assert.True(t, ev.checks.Valid(out))
	assert.True(t, cs.Satisfied(out))
}

func TestNelderMeadWithNothingMovable(t *testing.T) {
	cs := &model.ConstraintSet{}
	cs.Fix("chair-0", 1, 1, 0)
	p := makeTestProblem(model.NewRoom(4, 4), 1)
	p.Constraints = cs
	l := model.NewLayout(makeTestItems(t, p.Rules, model.TypeChair)...)
	l.Items[0].SetPosition(1, 1)
	assert.True(t, p.Refine(l, model.RefinerNelderMead, 20).Equal(l, 0))
}

func TestRefineNoneReturnsCopy(t *testing.T) {
	p := makeTestProblem(model.NewRoom(10, 8), 2)
	l := livingRoom(t, p)
	out := p.Refine(l, model.RefinerNone, 10)
	assert.True(t, out.Equal(l, 0))
	assert.NotSame(t, l, out)
}

func TestHintsOrderedByValue(t *testing.T) {
	room := model.NewRoom(10, 8)
	room.Windows = []model.Rect{{X: 9.9, Y: 4, Width: 0.1, Height: 1}}
	p := makeTestProblem(room, 3)
	l := model.NewLayout(makeTestItems(t, p.Rules, model.TypeBed, model.TypeSofa, model.TypeTVStand, model.TypeCoffeeTable)...)
	l.Items[0].SetPosition(1.13, 1.13)
	l.Items[1].SetPosition(1.2, 5.5)
	l.Items[1].SetRotation(180)
	l.Items[2].SetPosition(6, 5.75)
	l.Items[3].SetPosition(7, 1)

	hs := p.newEvaluator().hints(l)
	require.NotEmpty(t, hs)
	kinds := map[string]bool{}
	for i, h := range hs {
		kinds[h.kind] = true
		if i > 0 {
			assert.GreaterOrEqual(t, hs[i-1].value, h.value)
		}
	}
	assert.True(t, kinds["face"])
	assert.True(t, kinds["window"])
	assert.True(t, kinds["snap"])
	assert.True(t, kinds["near"])
}
