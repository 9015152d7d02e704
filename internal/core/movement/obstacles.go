package movement

import (
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/pathfinding"
	"github.com/zeusync/robonav/internal/core/physics"
)

// PathSpeed is the path-following speed in units per time unit.
const PathSpeed = 0.01

// AvoidanceState is the phase the obstacle-avoidance controller is in.
type AvoidanceState uint8

const (
	// StateNoField: no obstacle field, pursuit is delegated entirely.
	StateNoField AvoidanceState = iota
	// StatePathFollowing: walking the computed path tile by tile.
	StatePathFollowing
	// StateFinalApproach: the next waypoint is the target tile, pursuit is
	// delegated for sub-tile precision.
	StateFinalApproach
	// StateIdle: no route to the target, or the path is used up.
	StateIdle
)

func (s AvoidanceState) String() string {
	switch s {
	case StateNoField:
		return "no_field"
	case StatePathFollowing:
		return "path_following"
	case StateFinalApproach:
		return "final_approach"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// PathFinder computes a tile route; an empty result means unreachable.
type PathFinder interface {
	FindPath(from, to physics.Vector2) []physics.Vector2
}

// PathFinderFactory builds a path finder for a field.
type PathFinderFactory func(grid level.Grid) PathFinder

func defaultPathFinderFactory(grid level.Grid) PathFinder {
	return pathfinding.NewFieldPathFinder(grid)
}

// ObstacleAvoidance follows a grid route to the target's tile and hands the
// last stretch, and all movement when no field is active, to a fallback
// pursuit strategy.
type ObstacleAvoidance struct {
	fallback  Strategy
	newFinder PathFinderFactory
	logger    log.Log
	speed     float64

	grid       level.Grid
	finder     PathFinder
	targetTile physics.Vector2
	hasTarget  bool
	path       []physics.Vector2
	cursor     int
	state      AvoidanceState
}

var _ Strategy = (*ObstacleAvoidance)(nil)

type ObstacleOption func(*ObstacleAvoidance)

// WithFallback replaces the pursuit used without a field and for the final
// approach. The default is DirectPursuit.
func WithFallback(s Strategy) ObstacleOption {
	return func(o *ObstacleAvoidance) { o.fallback = s }
}

func WithPathFinderFactory(f PathFinderFactory) ObstacleOption {
	return func(o *ObstacleAvoidance) { o.newFinder = f }
}

func WithObstacleLogger(l log.Log) ObstacleOption {
	return func(o *ObstacleAvoidance) { o.logger = l }
}

func NewObstacleAvoidance(opts ...ObstacleOption) *ObstacleAvoidance {
	o := &ObstacleAvoidance{
		fallback:  NewDirectPursuit(),
		newFinder: defaultPathFinderFactory,
		logger:    log.NewNop(),
		speed:     PathSpeed,
		state:     StateNoField,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State is the phase decided on the last Velocity call.
func (o *ObstacleAvoidance) State() AvoidanceState { return o.state }

// Path returns a copy of the current route and the index of the next
// waypoint.
func (o *ObstacleAvoidance) Path() ([]physics.Vector2, int) {
	out := make([]physics.Vector2, len(o.path))
	copy(out, o.path)
	return out, o.cursor
}

// Reset forgets the field, the route and the cached target tile.
func (o *ObstacleAvoidance) Reset() {
	o.grid = nil
	o.finder = nil
	o.path = nil
	o.cursor = 0
	o.hasTarget = false
	o.state = StateNoField
}

func (o *ObstacleAvoidance) Velocity(s State, dt int) physics.Vector2 {
	if s.Field == nil {
		if o.grid != nil {
			o.Reset()
		}
		o.state = StateNoField
		return o.fallback.Velocity(s, dt)
	}

	if o.grid != s.Field {
		o.Reset()
		o.grid = s.Field
		o.finder = o.newFinder(s.Field)
	}

	return o.followPath(s, dt)
}

func (o *ObstacleAvoidance) followPath(s State, dt int) physics.Vector2 {
	targetTile := s.Target.Floor()
	fromTile := s.Pose.Tile()

	if !o.hasTarget || !o.targetTile.Equal(targetTile) {
		o.targetTile = targetTile
		o.hasTarget = true
		o.path = o.finder.FindPath(fromTile, targetTile)
		o.cursor = 0
		o.logger.Debug("Route planned",
			log.Stringer("from", fromTile),
			log.Stringer("to", targetTile),
			log.Int("waypoints", len(o.path)))
	}

	if len(o.path) == 0 || o.cursor >= len(o.path) {
		o.state = StateIdle
		return physics.Zero
	}

	next := o.path[o.cursor]
	if next.Equal(targetTile) {
		o.state = StateFinalApproach
		return o.fallback.Velocity(s, dt)
	}

	o.state = StatePathFollowing
	if next.Equal(fromTile) {
		// Standing on the waypoint: take the next one from the following
		// tick on.
		o.cursor++
		return physics.Zero
	}

	return next.Sub(fromTile).Normalize().Scale(float64(dt) * o.speed)
}
