package movement

import (
	"math"

	"github.com/zeusync/robonav/internal/core/physics"
)

// Limits are the kinematic constraints of a differential-drive robot.
type Limits struct {
	MaxLinearVelocity  float64 // units per time unit
	MaxAngularVelocity float64 // radians per time unit
	ArrivalDistanceSq  float64 // squared distance under which the target counts as reached
	AngleEpsilon       float64 // heading error under which no turn is made
}

// DefaultLimits are the robot's stock constraints. The minimum turning
// radius they imply is MaxLinearVelocity / MaxAngularVelocity = 100.
func DefaultLimits() Limits {
	return Limits{
		MaxLinearVelocity:  0.1,
		MaxAngularVelocity: 0.001,
		ArrivalDistanceSq:  0.5,
		AngleEpsilon:       1e-5,
	}
}

// TurningRadius is the radius of the tightest circle the robot can drive.
func (l Limits) TurningRadius() float64 {
	return l.MaxLinearVelocity / l.MaxAngularVelocity
}

// DirectPursuit steers straight for the target in open space. It always
// drives at full linear speed and turns at full angular speed until facing
// the target.
type DirectPursuit struct {
	limits Limits
}

var _ Strategy = DirectPursuit{}

func NewDirectPursuit() DirectPursuit { return DirectPursuit{limits: DefaultLimits()} }

func NewDirectPursuitWithLimits(l Limits) DirectPursuit { return DirectPursuit{limits: l} }

func (d DirectPursuit) Limits() Limits { return d.limits }

// Arrived reports whether the target is close enough to stop.
func (d DirectPursuit) Arrived(s State) bool {
	return s.Pose.Position.DistanceSquared(s.Target) < d.limits.ArrivalDistanceSq
}

func (d DirectPursuit) Velocity(s State, dt int) physics.Vector2 {
	if d.Arrived(s) {
		return physics.Zero
	}
	direction := d.nextDirection(s.Pose, s.Target, dt)
	step := d.limits.MaxLinearVelocity * float64(dt)
	return physics.Vec2(step*math.Cos(direction), step*math.Sin(direction))
}

func (d DirectPursuit) nextDirection(pose physics.Pose, target physics.Vector2, dt int) float64 {
	bearing := physics.AngleTo(pose.Position, target)
	diff := physics.NormalizeRadians(bearing - pose.Direction)
	if diff < d.limits.AngleEpsilon {
		return pose.Direction
	}

	w := d.limits.MaxAngularVelocity
	if diff > math.Pi {
		w = -w
	}
	// A target inside a turning circle cannot be reached by turning towards
	// it; turning away first lets the robot come back around.
	if d.InsideBlindZone(pose, target) {
		w = -w
	}

	return physics.NormalizeRadians(pose.Direction + w*float64(dt))
}

// InsideBlindZone reports whether point lies strictly inside one of the two
// minimum-turning circles tangent to the robot's heading.
func (d DirectPursuit) InsideBlindZone(pose physics.Pose, point physics.Vector2) bool {
	r := d.limits.TurningRadius()
	sin, cos := math.Sincos(pose.Direction)
	offset := physics.Vec2(-r*sin, r*cos)

	left := pose.Position.Add(offset)
	right := pose.Position.Sub(offset)
	r2 := r * r
	return point.DistanceSquared(left) < r2 || point.DistanceSquared(right) < r2
}
