package engine

import (
	"github.com/zeusync/robonav/internal/core/events/bus"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
)

const (
	DefaultFieldWidth  = 50
	DefaultFieldHeight = 50
)

// DefaultSpawn is where the robot starts and returns to on reset.
var DefaultSpawn = physics.Vec2(2, 2)

type Option func(*Engine)

func WithLogger(l log.Log) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBus shares an existing bus instead of a private one.
func WithBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithRegistry(r *movement.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithDefaultMovement names the strategy used outside obstacle mode.
func WithDefaultMovement(name string) Option {
	return func(e *Engine) { e.defaultMovement = name }
}

func WithGenerator(g *level.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithSeed makes every obstacle field generated by the engine use seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.seeded = true
	}
}

func WithFieldSize(width, height int) Option {
	return func(e *Engine) {
		e.width = width
		e.height = height
	}
}

func WithSpawn(p physics.Vector2) Option {
	return func(e *Engine) { e.spawn = p }
}

// WithAvoidanceOptions configures the controller installed in obstacle mode.
func WithAvoidanceOptions(opts ...movement.ObstacleOption) Option {
	return func(e *Engine) { e.avoidance = append(e.avoidance, opts...) }
}
