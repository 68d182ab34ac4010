package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatedRectKeepsCenterAndArea(t *testing.T) {
	r := RotatedRect(2, 3, 4, 2, 37)
	c := Centroid(r)
	assert.InDelta(t, 4.0, c[0], 1e-9)
	assert.InDelta(t, 4.0, c[1], 1e-9)
	assert.InDelta(t, 8.0, Area(r), 1e-9)
}

func TestRotatedRectQuarterTurnSwapsExtent(t *testing.T) {
	b := RotatedRect(0, 0, 4, 2, 90).Bound()
	assert.InDelta(t, 1.0, b.Min[0], 1e-9)
	assert.InDelta(t, 3.0, b.Max[0], 1e-9)
	assert.InDelta(t, -1.0, b.Min[1], 1e-9)
	assert.InDelta(t, 3.0, b.Max[1], 1e-9)
}

func TestBufferGrowsByDistance(t *testing.T) {
	buf := Buffer(Rect(0, 0, 2, 1), 0.5, 8)
	b := buf.Bound()
	assert.InDelta(t, -0.5, b.Min[0], 1e-9)
	assert.InDelta(t, 2.5, b.Max[0], 1e-9)
	assert.InDelta(t, -0.5, b.Min[1], 1e-9)
	assert.InDelta(t, 1.5, b.Max[1], 1e-9)

	// rectangle plus side strips plus an almost complete disk
	expected := 2.0 + 2*(2*0.5) + 2*(1*0.5) + math.Pi*0.25
	assert.InDelta(t, expected, Area(buf), 0.01)
	require.NoError(t, Validate(buf))
}

func TestBufferZeroIsIdentity(t *testing.T) {
	r := Rect(1, 1, 2, 2)
	assert.Equal(t, r, Buffer(r, 0, 8))
}

func TestBufferClockwiseInput(t *testing.T) {
	cw := orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	b := Buffer(cw, 1, 4).Bound()
	assert.InDelta(t, -1.0, b.Min[0], 1e-9)
	assert.InDelta(t, 2.0, b.Max[1], 1e-9)
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Ring
		want bool
	}{
		{"overlap", Rect(0, 0, 2, 2), Rect(1, 1, 2, 2), true},
		{"disjoint", Rect(0, 0, 1, 1), Rect(3, 3, 1, 1), false},
		{"touching edge", Rect(0, 0, 1, 1), Rect(1, 0, 1, 1), false},
		{"touching corner", Rect(0, 0, 1, 1), Rect(1, 1, 1, 1), false},
		{"contained", Rect(0, 0, 4, 4), Rect(1, 1, 1, 1), true},
		{"rotated corner gap", RotatedRect(0, 0, 2, 2, 45), Rect(2.3, 2.3, 1, 1), false},
		{"rotated overlap", RotatedRect(0, 0, 2, 2, 45), Rect(1.8, 0.8, 1, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(tt.a, tt.b))
			assert.Equal(t, tt.want, Intersects(tt.b, tt.a))
		})
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 2.0, Distance(Rect(0, 0, 1, 1), Rect(3, 0, 1, 1)), 1e-9)
	assert.InDelta(t, math.Sqrt2, Distance(Rect(0, 0, 1, 1), Rect(2, 2, 1, 1)), 1e-9)
	assert.Equal(t, 0.0, Distance(Rect(0, 0, 2, 2), Rect(1, 1, 2, 2)))
}

func TestWithin(t *testing.T) {
	room := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	assert.True(t, Within(Rect(0, 0, 10, 10), room))
	assert.False(t, Within(Rect(9.5, 0, 1, 1), room))
	assert.False(t, Within(nil, room))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Rect(0, 0, 1, 1)))
	assert.True(t, errors.Is(Validate(orb.Ring{{0, 0}, {1, 1}}), ErrDegenerate))
	assert.True(t, errors.Is(Validate(Rect(0, 0, 0, 1)), ErrDegenerate))
	assert.True(t, errors.Is(Validate(Rect(math.NaN(), 0, 1, 1)), ErrDegenerate))
}

func TestAngles(t *testing.T) {
	assert.Equal(t, 350.0, NormalizeAngle(-10))
	assert.Equal(t, 0.0, NormalizeAngle(720))
	assert.Equal(t, 20.0, AngleDiff(350, 10))
	assert.Equal(t, 180.0, AngleDiff(0, 180))
	assert.InDelta(t, 90.0, Heading(orb.Point{0, 0}, orb.Point{0, 5}), 1e-9)
	assert.InDelta(t, 225.0, Heading(orb.Point{1, 1}, orb.Point{0, 0}), 1e-9)
}
