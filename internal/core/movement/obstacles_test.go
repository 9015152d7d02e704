package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/pathfinding"
	"github.com/zeusync/robonav/internal/core/physics"
)

func mustField(t *testing.T, rows ...string) *level.Field {
	t.Helper()
	f, err := level.FieldFromRows(rows...)
	require.NoError(t, err)
	return f
}

type countingFinder struct {
	inner PathFinder
	calls int
}

func (c *countingFinder) FindPath(from, to physics.Vector2) []physics.Vector2 {
	c.calls++
	return c.inner.FindPath(from, to)
}

// countingFactory records both the number of finders built and the number of
// searches run on the most recent one.
type countingFactory struct {
	built  int
	finder *countingFinder
}

func (c *countingFactory) factory(grid level.Grid) PathFinder {
	c.built++
	c.finder = &countingFinder{inner: pathfinding.NewFieldPathFinder(grid)}
	return c.finder
}

func TestObstacleAvoidance_NoFieldDelegates(t *testing.T) {
	calls := 0
	want := physics.Vec2(0.3, -0.2)
	o := NewObstacleAvoidance(WithFallback(StrategyFunc(func(State, int) physics.Vector2 {
		calls++
		return want
	})))

	got := o.Velocity(State{Target: physics.Vec2(5, 5)}, 10)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateNoField, o.State())
}

func TestObstacleAvoidance_SettlesOnFirstWaypoint(t *testing.T) {
	field := mustField(t,
		".....",
		".....",
		".....",
	)
	o := NewObstacleAvoidance()
	state := State{
		Pose:   physics.Pose{Position: physics.Vec2(1.5, 1.5)},
		Target: physics.Vec2(3.5, 1.5),
		Field:  field,
	}

	v := o.Velocity(state, 10)
	assert.True(t, v.IsZero(), "the tick that lands on a waypoint does not move")
	assert.Equal(t, StatePathFollowing, o.State())

	path, cursor := o.Path()
	require.NotEmpty(t, path)
	assert.Equal(t, physics.Vec2(1, 1), path[0])
	assert.Equal(t, physics.Vec2(3, 1), path[len(path)-1])
	assert.Equal(t, 1, cursor)

	v = o.Velocity(state, 10)
	assert.InDelta(t, 0.1, v.X, 1e-12)
	assert.InDelta(t, 0, v.Y, 1e-12)
}

func TestObstacleAvoidance_Corridor(t *testing.T) {
	field := mustField(t,
		"#######",
		"#.....#",
		"#######",
	)
	o := NewObstacleAvoidance(WithFallback(NewStraightPursuit()))
	state := State{
		Pose:   physics.Pose{Position: physics.Vec2(1, 1)},
		Target: physics.Vec2(4.5, 1.5),
		Field:  field,
	}

	settling := 0
	arrived := false
	seen := map[AvoidanceState]bool{}
	for tick := 0; tick < 100; tick++ {
		v := o.Velocity(state, 10)
		seen[o.State()] = true
		if v.IsZero() {
			if o.State() == StateFinalApproach {
				arrived = true
				break
			}
			settling++
			continue
		}
		state.Pose = state.Pose.Advance(v)
		assert.False(t, field.HasObstacle(state.Pose.Position.Cell()), "entered an obstacle at %s", state.Pose.Position)
	}

	require.True(t, arrived)
	assert.Equal(t, 3, settling, "one settling tick per intermediate waypoint")
	assert.True(t, seen[StatePathFollowing])
	assert.True(t, seen[StateFinalApproach])
	assert.False(t, seen[StateIdle])
	assert.Less(t, state.Pose.Position.DistanceSquared(state.Target), 0.05)
}

func TestObstacleAvoidance_Unreachable(t *testing.T) {
	field := mustField(t,
		".....",
		"..###",
		"..#..",
		"..###",
	)
	o := NewObstacleAvoidance()
	state := State{
		Pose:   physics.Pose{Position: physics.Vec2(0.5, 0.5)},
		Target: physics.Vec2(3.5, 2.5),
		Field:  field,
	}

	for i := 0; i < 3; i++ {
		assert.True(t, o.Velocity(state, 10).IsZero())
		assert.Equal(t, StateIdle, o.State())
	}
}

func TestObstacleAvoidance_ReplansOnlyOnTargetTileChange(t *testing.T) {
	field := mustField(t,
		"......",
		"......",
		"......",
	)
	counter := &countingFactory{}
	o := NewObstacleAvoidance(WithPathFinderFactory(counter.factory))
	state := State{
		Pose:   physics.Pose{Position: physics.Vec2(0.5, 0.5)},
		Target: physics.Vec2(4.2, 1.2),
		Field:  field,
	}

	o.Velocity(state, 10)
	o.Velocity(state, 10)
	state.Target = physics.Vec2(4.8, 1.9) // same tile
	o.Velocity(state, 10)
	assert.Equal(t, 1, counter.finder.calls)

	state.Target = physics.Vec2(5.5, 2.5)
	o.Velocity(state, 10)
	assert.Equal(t, 2, counter.finder.calls)

	path, cursor := o.Path()
	assert.Equal(t, physics.Vec2(0, 0), path[0], "replans from the current tile")
	assert.Equal(t, physics.Vec2(5, 2), path[len(path)-1])
	assert.Equal(t, 1, cursor)
	assert.Equal(t, 1, counter.built)
}

func TestObstacleAvoidance_FieldChangeResets(t *testing.T) {
	counter := &countingFactory{}
	o := NewObstacleAvoidance(WithPathFinderFactory(counter.factory))
	state := State{
		Pose:   physics.Pose{Position: physics.Vec2(0.5, 0.5)},
		Target: physics.Vec2(2.5, 0.5),
		Field:  mustField(t, "...."),
	}

	o.Velocity(state, 10)
	assert.Equal(t, 1, counter.built)

	state.Field = mustField(t, "....")
	o.Velocity(state, 10)
	assert.Equal(t, 2, counter.built, "a new field instance gets a new finder")
	assert.Equal(t, 1, counter.finder.calls)

	state.Field = nil
	o.Velocity(state, 10)
	assert.Equal(t, StateNoField, o.State())
	path, cursor := o.Path()
	assert.Empty(t, path)
	assert.Zero(t, cursor)
}

func TestAvoidanceState_String(t *testing.T) {
	assert.Equal(t, "no_field", StateNoField.String())
	assert.Equal(t, "path_following", StatePathFollowing.String())
	assert.Equal(t, "final_approach", StateFinalApproach.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "unknown", AvoidanceState(42).String())
}
