package engine

import (
	"fmt"

	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/physics"
)

// Event types published on the engine's bus.
const (
	EventModelChanged = "model.changed"
	EventFieldChanged = "field.changed"
)

const eventSource = "engine"

// Snapshot is a consistent copy of the observable engine state.
type Snapshot struct {
	Pose         physics.Pose    `json:"pose"`
	Target       physics.Vector2 `json:"target"`
	ObstacleMode bool            `json:"obstacle_mode"`
	Tick         uint64          `json:"tick"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("tick=%d pose=%s target=%s obstacles=%t", s.Tick, s.Pose, s.Target, s.ObstacleMode)
}

// Arrived reports whether the robot is within arrivalSq of the target.
func (s Snapshot) Arrived(arrivalSq float64) bool {
	return s.Pose.Position.DistanceSquared(s.Target) < arrivalSq
}

// FieldChange is published when a field is installed or removed. Field is
// nil when obstacle mode was switched off.
type FieldChange struct {
	Field       level.Grid
	Fingerprint uint64
}
