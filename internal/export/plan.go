// Package export renders optimized room layouts to files: a PDF floor plan
// with a score summary, QR-coded installer labels, a layered DXF drawing and
// an Excel furniture schedule.
package export

import (
	"errors"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/model"
)

// ErrEmptyPlan is returned when there is nothing to render.
var ErrEmptyPlan = errors.New("no furniture to export")

// Plan is the input to every exporter: one room and the layout chosen for
// it, with the score it earned.
type Plan struct {
	Name      string
	Room      model.Room
	Layout    *model.Layout
	Score     float64
	Breakdown map[string]float64
	Removed   []string
}

// NewPlan builds a plan from a stored optimization result. A nil result
// gives a plan with an empty layout.
func NewPlan(name string, room model.Room, layout *model.Layout, res *model.Result) Plan {
	p := Plan{Name: name, Room: room, Layout: layout}
	if p.Layout == nil {
		p.Layout = model.NewLayout()
	}
	if res != nil {
		p.Score = res.Score
		p.Breakdown = res.Breakdown
		p.Removed = res.Removed
	}
	return p
}

func (p Plan) empty() bool {
	return p.Layout == nil || p.Layout.Len() == 0
}

// termOrder is the order score terms are listed in.
var termOrder = []string{
	model.TermComfort,
	model.TermAccessibility,
	model.TermSpace,
	model.TermAesthetics,
	model.TermSpacing,
	model.TermRelations,
	model.TermCompleteness,
}

// terms returns the breakdown in display order; unknown terms follow in
// lexical order.
func (p Plan) terms() []string {
	out := make([]string, 0, len(p.Breakdown))
	seen := map[string]bool{}
	for _, t := range termOrder {
		if _, ok := p.Breakdown[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	var rest []string
	for t := range p.Breakdown {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// typeColor gives each furniture type an evenly spaced hue.
func typeColor(t model.FurnitureType) colorful.Color {
	idx := len(model.AllTypes)
	for i, at := range model.AllTypes {
		if at == t {
			idx = i
			break
		}
	}
	hue := float64(idx) * 360 / float64(len(model.AllTypes)+1)
	return colorful.Hsv(hue, 0.55, 0.85)
}

// clearanceColor is the type colour washed out toward white.
func clearanceColor(t model.FurnitureType) colorful.Color {
	return typeColor(t).BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.75).Clamped()
}

func rgb(c colorful.Color) (int, int, int) {
	r, g, b := c.RGB255()
	return int(r), int(g), int(b)
}

// vertices drops the closing point of a ring.
func vertices(r orb.Ring) []orb.Point {
	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}
