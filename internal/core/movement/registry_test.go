package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robonav/internal/core/physics"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{NameDirect, NameObstacles, NameStraight}, r.Names())

	tests := []struct {
		name string
		want any
	}{
		{NameDirect, DirectPursuit{}},
		{NameStraight, StraightPursuit{}},
		{NameObstacles, &ObstacleAvoidance{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.New(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestRegistry_FreshInstances(t *testing.T) {
	r := DefaultRegistry()
	a, err := r.New(NameObstacles)
	require.NoError(t, err)
	b, err := r.New(NameObstacles)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := DefaultRegistry().New("teleport")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "teleport")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	stop := func() Strategy {
		return StrategyFunc(func(State, int) physics.Vector2 { return physics.Zero })
	}

	require.NoError(t, r.Register("stop", stop))
	assert.Error(t, r.Register("stop", stop), "duplicate")
	assert.Error(t, r.Register("", stop))
	assert.Error(t, r.Register("nil", nil))

	s, err := r.New("stop")
	require.NoError(t, err)
	assert.True(t, s.Velocity(State{Target: physics.Vec2(1, 1)}, 10).IsZero())
}
