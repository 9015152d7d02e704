package movement

import "github.com/zeusync/robonav/internal/core/physics"

const (
	straightSpeed     = 0.01
	straightArrivalSq = 0.05
)

// StraightPursuit moves along the segment to the target at a fixed low speed,
// ignoring heading. It suits sub-tile moves where a turning circle would
// overshoot.
type StraightPursuit struct {
	Speed     float64
	ArrivalSq float64
}

var _ Strategy = StraightPursuit{}

func NewStraightPursuit() StraightPursuit {
	return StraightPursuit{Speed: straightSpeed, ArrivalSq: straightArrivalSq}
}

func (p StraightPursuit) Velocity(s State, dt int) physics.Vector2 {
	from := s.Pose.Position
	if from.DistanceSquared(s.Target) < p.ArrivalSq {
		return physics.Zero
	}
	return s.Target.Sub(from).Normalize().Scale(float64(dt) * p.Speed)
}
