package physics

import "fmt"

// Pose is a robot position together with its heading in radians, [0, 2π).
type Pose struct {
	Position  Vector2 `json:"position"`
	Direction float64 `json:"direction"`
}

// Advance integrates a non-zero velocity into the pose: the position moves by
// velocity and the heading turns to face along it.
func (p Pose) Advance(velocity Vector2) Pose {
	return Pose{
		Position:  p.Position.Add(velocity),
		Direction: velocity.Angle(),
	}
}

// Tile is the grid cell containing the pose position.
func (p Pose) Tile() Vector2 { return p.Position.Floor() }

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f) @ %.4f rad", p.Position.X, p.Position.Y, p.Direction)
}
