// Package physics holds the 2D vector arithmetic and angle helpers shared by
// the navigation engine.
package physics

import (
	"fmt"
	"math"
)

// Vector2 is an immutable 2D vector. It is passed and returned by value.
type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Zero is the zero vector.
var Zero = Vector2{}

// Vec2 builds a Vector2 from its components.
func Vec2(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector2) Scale(t float64) Vector2 {
	return Vector2{X: v.X * t, Y: v.Y * t}
}

// Mul multiplies component-wise.
func (v Vector2) Mul(o Vector2) Vector2 { return Vector2{X: v.X * o.X, Y: v.Y * o.Y} }

// Div divides component-wise. A zero component in o yields ±Inf or NaN.
func (v Vector2) Div(o Vector2) Vector2 { return Vector2{X: v.X / o.X, Y: v.Y / o.Y} }

func (v Vector2) Abs() Vector2 { return Vector2{X: math.Abs(v.X), Y: math.Abs(v.Y)} }

// Floor takes the integral part of each component towards negative infinity.
// It maps a point onto the tile that contains it.
func (v Vector2) Floor() Vector2 { return Vector2{X: math.Floor(v.X), Y: math.Floor(v.Y)} }

func (v Vector2) Dot(o Vector2) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vector2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vector2) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// DistanceSquared is the squared euclidean distance between two points.
func (v Vector2) DistanceSquared(o Vector2) float64 { return o.Sub(v).LengthSquared() }

func (v Vector2) Distance(o Vector2) float64 { return math.Sqrt(v.DistanceSquared(o)) }

// Normalize returns the unit vector pointing the same way as v.
// The zero vector normalizes to itself instead of producing NaN components.
func (v Vector2) Normalize() Vector2 {
	l := v.Length()
	if l == 0 {
		return Zero
	}
	return Vector2{X: v.X / l, Y: v.Y / l}
}

// Angle is the angle between the x axis and v, normalized into [0, 2π).
func (v Vector2) Angle() float64 { return NormalizeRadians(math.Atan2(v.Y, v.X)) }

func (v Vector2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Equal compares exactly. Tiles produced by Floor compare reliably.
func (v Vector2) Equal(o Vector2) bool { return v.X == o.X && v.Y == o.Y }

// Cell returns the integer coordinates of the grid cell containing v.
func (v Vector2) Cell() (x, y int) {
	f := v.Floor()
	return int(f.X), int(f.Y)
}

func (v Vector2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }
