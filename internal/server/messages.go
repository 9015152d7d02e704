package server

import (
	"fmt"

	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/physics"
)

// Outbound message types.
const (
	TypeState = "state"
	TypeField = "field"
	TypeError = "error"
)

// Inbound actions.
const (
	ActionSetTarget    = "set_target"
	ActionObstacleMode = "obstacle_mode"
	ActionReset        = "reset"
	ActionMovement     = "movement"
)

// Command is a client request. Which fields matter depends on Action.
type Command struct {
	Action  string  `json:"action"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Enabled bool    `json:"enabled,omitempty"`
	Name    string  `json:"name,omitempty"`
}

// StateMessage mirrors an engine snapshot.
type StateMessage struct {
	Type         string          `json:"type"`
	Pose         physics.Pose    `json:"pose"`
	Target       physics.Vector2 `json:"target"`
	ObstacleMode bool            `json:"obstacle_mode"`
	Tick         uint64          `json:"tick"`
}

// FieldMessage carries the full obstacle layout. Present is false when the
// field was removed.
type FieldMessage struct {
	Type        string   `json:"type"`
	Present     bool     `json:"present"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	Rows        []string `json:"rows,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

type ErrorMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

func newStateMessage(s engine.Snapshot) StateMessage {
	return StateMessage{
		Type:         TypeState,
		Pose:         s.Pose,
		Target:       s.Target,
		ObstacleMode: s.ObstacleMode,
		Tick:         s.Tick,
	}
}

func newFieldMessage(c engine.FieldChange) FieldMessage {
	if c.Field == nil {
		return FieldMessage{Type: TypeField}
	}
	return FieldMessage{
		Type:        TypeField,
		Present:     true,
		Width:       c.Field.Width(),
		Height:      c.Field.Height(),
		Rows:        level.GridRows(c.Field),
		Fingerprint: level.FormatFingerprint(c.Fingerprint),
	}
}

func newErrorMessage(action string, err error) ErrorMessage {
	return ErrorMessage{Type: TypeError, Action: action, Error: err.Error()}
}

func (c Command) String() string {
	switch c.Action {
	case ActionSetTarget:
		return fmt.Sprintf("%s(%g, %g)", c.Action, c.X, c.Y)
	case ActionObstacleMode:
		return fmt.Sprintf("%s(%t)", c.Action, c.Enabled)
	case ActionMovement:
		return fmt.Sprintf("%s(%s)", c.Action, c.Name)
	default:
		return c.Action
	}
}
