package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector2_Arithmetic(t *testing.T) {
	a := Vec2(3, 4)
	b := Vec2(-1, 2)

	assert.Equal(t, Vec2(2, 6), a.Add(b))
	assert.Equal(t, Vec2(4, 2), a.Sub(b))
	assert.Equal(t, Vec2(6, 8), a.Scale(2))
	assert.Equal(t, Vec2(-3, 8), a.Mul(b))
	assert.Equal(t, Vec2(-3, 2), a.Div(b))
	assert.Equal(t, Vec2(1, 2), b.Abs())
	assert.Equal(t, 5.0, a.Dot(b))
	assert.Equal(t, 25.0, a.LengthSquared())
	assert.Equal(t, 5.0, a.Length())
	assert.Equal(t, 20.0, a.DistanceSquared(b))
	assert.InDelta(t, math.Sqrt(20), a.Distance(b), 1e-12)
}

func TestVector2_Normalize(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		n := Vec2(3, 4).Normalize()
		assert.InDelta(t, 1.0, n.Length(), 1e-12)
		assert.InDelta(t, 0.6, n.X, 1e-12)
		assert.InDelta(t, 0.8, n.Y, 1e-12)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		n := Zero.Normalize()
		require.True(t, n.IsZero())
		assert.False(t, math.IsNaN(n.X))
	})
}

func TestVector2_Floor(t *testing.T) {
	assert.Equal(t, Vec2(2, 3), Vec2(2.9999, 3.0).Floor())
	assert.Equal(t, Vec2(-1, 0), Vec2(-0.5, 0.2).Floor())

	x, y := Vec2(7, 9).Cell()
	assert.Equal(t, 7, x)
	assert.Equal(t, 9, y)

	// Points left of or above the origin belong to the -1 cells.
	x, y = Vec2(-0.5, 3.7).Cell()
	assert.Equal(t, -1, x)
	assert.Equal(t, 3, y)
}

func TestNormalizeRadians(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"inside range", 1, 1},
		{"full turn wraps", Tau, 0},
		{"negative small", -0.5, Tau - 0.5},
		{"several turns", 3*Tau + 0.25, 0.25},
		{"several negative turns", -2*Tau - 0.25, Tau - 0.25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeRadians(tc.in)
			assert.InDelta(t, tc.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, Tau)
		})
	}
}

func TestAngleTo(t *testing.T) {
	origin := Vec2(1, 1)
	assert.InDelta(t, 0, AngleTo(origin, Vec2(5, 1)), 1e-12)
	assert.InDelta(t, math.Pi/2, AngleTo(origin, Vec2(1, 5)), 1e-12)
	assert.InDelta(t, math.Pi, AngleTo(origin, Vec2(-3, 1)), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, AngleTo(origin, Vec2(1, -3)), 1e-12)
}

func TestPose_Advance(t *testing.T) {
	p := Pose{Position: Vec2(2, 2)}

	next := p.Advance(Vec2(0, -1))
	assert.Equal(t, Vec2(2, 1), next.Position)
	assert.InDelta(t, 3*math.Pi/2, next.Direction, 1e-12)
	assert.Equal(t, Vec2(2, 1), next.Tile())
}
