package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/physics"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

// openGenerator produces fields with only the border ring blocked.
func openGenerator() *level.Generator {
	noise := level.DefaultNoiseConfig()
	noise.Threshold = 10
	return level.NewSeededGenerator(noise, 1)
}

type recorder struct {
	mu     sync.Mutex
	snaps  []Snapshot
	fields []FieldChange
}

func (r *recorder) onSnapshot(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) onField(c FieldChange) {
	r.mu.Lock()
	r.fields = append(r.fields, c)
	r.mu.Unlock()
}

func TestNew_Defaults(t *testing.T) {
	e := newEngine(t)
	snap := e.Snapshot()
	assert.Equal(t, physics.Pose{Position: DefaultSpawn}, snap.Pose)
	assert.Equal(t, DefaultSpawn, snap.Target)
	assert.False(t, snap.ObstacleMode)
	assert.Zero(t, snap.Tick)

	_, ok := e.Field()
	assert.False(t, ok)
	assert.Zero(t, e.Fingerprint())

	assert.False(t, e.Update(10), "already on target")
	assert.Equal(t, uint64(1), e.Snapshot().Tick)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(WithDefaultMovement("warp"))
	assert.ErrorIs(t, err, movement.ErrUnknownStrategy)

	_, err = New(WithFieldSize(0, 10))
	assert.ErrorIs(t, err, ErrInvalidFieldSize)
}

func TestUpdate_StraightEast(t *testing.T) {
	e := newEngine(t)
	rec := &recorder{}
	_, err := e.Subscribe(rec.onSnapshot)
	require.NoError(t, err)

	e.SetTarget(physics.Vec2(10, 2))
	require.Len(t, rec.snaps, 1)
	assert.Equal(t, physics.Vec2(10, 2), rec.snaps[0].Target)

	prevX := e.Pose().Position.X
	moves := 0
	for i := 0; i < 20 && e.Update(10); i++ {
		x := e.Pose().Position.X
		assert.Greater(t, x, prevX)
		assert.InDelta(t, 0, e.Pose().Direction, 1e-9)
		prevX = x
		moves++
	}

	assert.LessOrEqual(t, moves, 10)
	assert.True(t, e.Snapshot().Arrived(0.5))
	assert.Len(t, rec.snaps, moves+1, "one event per move plus the target change")
	for i := 1; i < len(rec.snaps); i++ {
		assert.Greater(t, rec.snaps[i].Tick, rec.snaps[i-1].Tick)
	}
}

func TestUpdate_BlindZoneConverges(t *testing.T) {
	e := newEngine(t, WithSpawn(physics.Vec2(0, 0)))
	e.SetTarget(physics.Vec2(0, 5))

	ticks := 0
	for ticks < 2500 && e.Update(10) {
		ticks++
	}
	require.Less(t, ticks, 2500)
	assert.True(t, e.Snapshot().Arrived(0.5))
}

func TestSetObstacleMode(t *testing.T) {
	e := newEngine(t, WithSeed(42))
	rec := &recorder{}
	_, err := e.SubscribeField(rec.onField)
	require.NoError(t, err)

	e.SetTarget(physics.Vec2(20, 20))
	e.Update(10)
	e.SetObstacleMode(true)

	snap := e.Snapshot()
	assert.True(t, snap.ObstacleMode)
	assert.Equal(t, DefaultSpawn, snap.Pose.Position, "enabling resets the pose")
	assert.Equal(t, DefaultSpawn, snap.Target)

	grid, ok := e.Field()
	require.True(t, ok)
	assert.Equal(t, DefaultFieldWidth, grid.Width())
	assert.Equal(t, DefaultFieldHeight, grid.Height())
	assert.False(t, grid.HasObstacle(2, 2), "spawn cell is cleared")
	for x := 0; x < grid.Width(); x++ {
		assert.True(t, grid.HasObstacle(x, 0))
		assert.True(t, grid.HasObstacle(x, grid.Height()-1))
	}

	want := level.NewGenerator(level.DefaultNoiseConfig()).GenerateWithSeed(50, 50, 42)
	want.RemoveObstacle(2, 2)
	assert.Equal(t, want.Fingerprint(), e.Fingerprint())

	require.Len(t, rec.fields, 1)
	assert.Equal(t, want.Fingerprint(), rec.fields[0].Fingerprint)
	assert.NotNil(t, rec.fields[0].Field)

	e.SetObstacleMode(false)
	_, ok = e.Field()
	assert.False(t, ok)
	assert.False(t, e.Snapshot().ObstacleMode)
	require.Len(t, rec.fields, 2)
	assert.Nil(t, rec.fields[1].Field)

	e.SetObstacleMode(false)
	assert.Len(t, rec.fields, 2, "no field event when nothing changed")
}

func TestObstacleMode_NavigatesToTarget(t *testing.T) {
	e := newEngine(t,
		WithGenerator(openGenerator()),
		WithAvoidanceOptions(movement.WithFallback(movement.NewStraightPursuit())),
	)
	e.SetObstacleMode(true)
	e.SetTarget(physics.Vec2(10.5, 2.5))

	grid, ok := e.Field()
	require.True(t, ok)

	arrived := false
	for i := 0; i < 300; i++ {
		e.Update(10)
		p := e.Pose().Position
		require.False(t, grid.HasObstacle(p.Cell()), "entered an obstacle at %s", p)
		if p.DistanceSquared(e.Target()) < 0.05 {
			arrived = true
			break
		}
	}
	assert.True(t, arrived)
}

func TestReset_Idempotent(t *testing.T) {
	e := newEngine(t, WithSeed(7))
	e.SetObstacleMode(true)
	e.SetTarget(physics.Vec2(30, 30))
	for i := 0; i < 50; i++ {
		e.Update(10)
	}

	e.Reset()
	first := e.Snapshot()
	e.Reset()
	second := e.Snapshot()

	assert.Equal(t, first.Pose, second.Pose)
	assert.Equal(t, first.Target, second.Target)
	assert.Equal(t, first.ObstacleMode, second.ObstacleMode)
	assert.Equal(t, physics.Pose{Position: DefaultSpawn}, second.Pose)
	assert.False(t, second.ObstacleMode)
	_, ok := e.Field()
	assert.False(t, ok)

	// The default strategy is back: open-space pursuit moves at full speed.
	e.SetTarget(physics.Vec2(10, 2))
	require.True(t, e.Update(10))
	assert.InDelta(t, 3.0, e.Pose().Position.X, 1e-9)
}

func TestChangeMovement(t *testing.T) {
	e := newEngine(t)

	err := e.ChangeMovement("teleport")
	assert.ErrorIs(t, err, movement.ErrUnknownStrategy)

	e.SetTarget(physics.Vec2(9, 9))
	require.NoError(t, e.ChangeMovement(movement.NameStraight))
	assert.Equal(t, DefaultSpawn, e.Target(), "changing movement resets the world")

	e.SetTarget(physics.Vec2(2, 10))
	require.True(t, e.Update(10))
	assert.InDelta(t, 2.1, e.Pose().Position.Y, 1e-9)
	assert.InDelta(t, 2.0, e.Pose().Position.X, 1e-9)
}

func TestSetMovement_Custom(t *testing.T) {
	e := newEngine(t)
	calls := 0
	e.SetMovement(movement.StrategyFunc(func(s movement.State, dt int) physics.Vector2 {
		calls++
		assert.Nil(t, s.Field)
		assert.Equal(t, 5, dt)
		return physics.Vec2(1, 1)
	}))

	require.True(t, e.Update(5))
	assert.Equal(t, 1, calls)
	assert.Equal(t, physics.Vec2(3, 3), e.Pose().Position)
	assert.InDelta(t, 0.7853981633974483, e.Pose().Direction, 1e-12)
}

func TestConcurrentAccess(t *testing.T) {
	e := newEngine(t, WithSeed(3))
	rec := &recorder{}
	_, err := e.Subscribe(rec.onSnapshot)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			e.Update(10)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			e.SetTarget(physics.Vec2(float64(i%40), float64(i%30)))
			_ = e.Snapshot()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			e.SetObstacleMode(i%2 == 0)
			_, _ = e.Field()
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(500), e.Snapshot().Tick)
	assert.NotEmpty(t, rec.snaps)
}
