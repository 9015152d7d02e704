// Package movement holds the strategies that turn the robot's pose and target
// into a velocity for the next tick.
package movement

import (
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/physics"
)

// State is the read-only world view a strategy decides on. Field is nil when
// no obstacle field is active.
type State struct {
	Pose   physics.Pose
	Target physics.Vector2
	Field  level.Grid
}

// Strategy computes the velocity to add to the robot position for a tick of
// duration dt. The zero vector means "do not move".
//
// Strategies are called from the engine's tick path only, never concurrently
// with themselves, so stateful strategies need no locking of their own.
type Strategy interface {
	Velocity(s State, dt int) physics.Vector2
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(s State, dt int) physics.Vector2

func (f StrategyFunc) Velocity(s State, dt int) physics.Vector2 { return f(s, dt) }
