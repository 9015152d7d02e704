// Package engine owns the robot's world state and advances it one tick at a
// time. Every mutation happens under a single mutex; observers are notified
// through the event bus after the mutex is released.
package engine

import (
	"fmt"
	"sync"

	"github.com/zeusync/robonav/internal/core/events/bus"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
)

type Engine struct {
	logger          log.Log
	bus             bus.EventBus
	registry        *movement.Registry
	defaultMovement string
	generator       *level.Generator
	seed            int64
	seeded          bool
	width, height   int
	spawn           physics.Vector2
	avoidance       []movement.ObstacleOption

	mu           sync.Mutex
	pose         physics.Pose
	target       physics.Vector2
	field        *level.Field
	obstacleMode bool
	strategy     movement.Strategy
	tick         uint64
}

// New builds an engine with the robot at the spawn point, no field and the
// default movement strategy.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:          log.NewNop(),
		defaultMovement: movement.NameDirect,
		width:           DefaultFieldWidth,
		height:          DefaultFieldHeight,
		spawn:           DefaultSpawn,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = bus.New()
	}
	if e.registry == nil {
		e.registry = movement.DefaultRegistry()
	}
	if e.generator == nil {
		e.generator = level.NewGenerator(level.DefaultNoiseConfig())
	}
	if e.width <= 0 || e.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFieldSize, e.width, e.height)
	}
	e.logger = e.logger.With(log.String("component", "engine"))

	strategy, err := e.registry.New(e.defaultMovement)
	if err != nil {
		return nil, fmt.Errorf("default movement: %w", err)
	}
	e.resetLocked()
	e.strategy = strategy
	return e, nil
}

// Bus is the bus change events are published on.
func (e *Engine) Bus() bus.EventBus { return e.bus }

// Update advances the world by dt time units. It reports whether the robot
// moved.
func (e *Engine) Update(dt int) bool {
	e.mu.Lock()
	e.tick++
	state := movement.State{Pose: e.pose, Target: e.target}
	if e.field != nil {
		state.Field = e.field
	}
	velocity := e.strategy.Velocity(state, dt)
	if velocity.IsZero() {
		e.mu.Unlock()
		return false
	}
	e.pose = e.pose.Advance(velocity)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publishModel(snap)
	return true
}

// SetTarget moves the target the robot steers for.
func (e *Engine) SetTarget(target physics.Vector2) {
	e.mu.Lock()
	e.target = target
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug("Target set", log.Stringer("target", target))
	e.publishModel(snap)
}

// SetObstacleMode resets the world and, when enabled, installs a freshly
// generated field with the obstacle-avoiding controller.
func (e *Engine) SetObstacleMode(enabled bool) {
	e.mu.Lock()
	hadField := e.field != nil
	e.resetLocked()
	if enabled {
		e.installFieldLocked()
	} else if strategy, err := e.registry.New(e.defaultMovement); err == nil {
		e.strategy = strategy
	}
	change := e.fieldChangeLocked()
	obstacles := 0
	if e.field != nil {
		obstacles = e.field.Obstacles()
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if enabled {
		e.logger.Info("Obstacle mode enabled",
			log.Int("width", e.width),
			log.Int("height", e.height),
			log.Int("obstacles", obstacles),
			log.Hex("fingerprint", change.Fingerprint))
	} else {
		e.logger.Info("Obstacle mode disabled")
	}
	if enabled || hadField {
		e.publishField(change)
	}
	e.publishModel(snap)
}

// Reset puts the robot back on the spawn point, drops the field and restores
// the default movement strategy. Calling it twice is the same as once.
func (e *Engine) Reset() {
	e.mu.Lock()
	hadField := e.field != nil
	e.resetLocked()
	if strategy, err := e.registry.New(e.defaultMovement); err == nil {
		e.strategy = strategy
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("Engine reset")
	if hadField {
		e.publishField(FieldChange{})
	}
	e.publishModel(snap)
}

// ChangeMovement resets the world and swaps in the named strategy.
func (e *Engine) ChangeMovement(name string) error {
	strategy, err := e.registry.New(name)
	if err != nil {
		return fmt.Errorf("change movement: %w", err)
	}
	e.swap(strategy)
	e.logger.Info("Movement changed", log.String("movement", name))
	return nil
}

// SetMovement resets the world and swaps in s.
func (e *Engine) SetMovement(s movement.Strategy) {
	e.swap(s)
}

func (e *Engine) swap(s movement.Strategy) {
	e.mu.Lock()
	hadField := e.field != nil
	e.resetLocked()
	e.strategy = s
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if hadField {
		e.publishField(FieldChange{})
	}
	e.publishModel(snap)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Pose() physics.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pose
}

func (e *Engine) Target() physics.Vector2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Field returns the active obstacle field. The field is never mutated after
// installation, so the returned view is safe to read concurrently.
func (e *Engine) Field() (level.Grid, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.field == nil {
		return nil, false
	}
	return e.field, true
}

// Fingerprint is the active field's fingerprint, zero without a field.
func (e *Engine) Fingerprint() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.field == nil {
		return 0
	}
	return e.field.Fingerprint()
}

// Subscribe calls fn with a snapshot after every state change.
func (e *Engine) Subscribe(fn func(Snapshot)) (bus.Subscription, error) {
	return e.bus.Subscribe(EventModelChanged, func(ev bus.Event) error {
		if snap, ok := ev.Data().(Snapshot); ok {
			fn(snap)
		}
		return nil
	})
}

// SubscribeField calls fn whenever a field is installed or removed.
func (e *Engine) SubscribeField(fn func(FieldChange)) (bus.Subscription, error) {
	return e.bus.Subscribe(EventFieldChanged, func(ev bus.Event) error {
		if change, ok := ev.Data().(FieldChange); ok {
			fn(change)
		}
		return nil
	})
}

func (e *Engine) resetLocked() {
	e.pose = physics.Pose{Position: e.spawn}
	e.target = e.spawn
	e.field = nil
	e.obstacleMode = false
}

func (e *Engine) installFieldLocked() {
	var field *level.Field
	if e.seeded {
		field = e.generator.GenerateWithSeed(e.width, e.height, e.seed)
	} else {
		field = e.generator.Generate(e.width, e.height)
	}
	x, y := e.spawn.Cell()
	if field.InBounds(x, y) {
		field.RemoveObstacle(x, y)
	}
	e.field = field
	e.obstacleMode = true
	e.strategy = movement.NewObstacleAvoidance(
		append([]movement.ObstacleOption{movement.WithObstacleLogger(e.logger)}, e.avoidance...)...)
}

func (e *Engine) fieldChangeLocked() FieldChange {
	if e.field == nil {
		return FieldChange{}
	}
	return FieldChange{Field: e.field, Fingerprint: e.field.Fingerprint()}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{Pose: e.pose, Target: e.target, ObstacleMode: e.obstacleMode, Tick: e.tick}
}

func (e *Engine) publishModel(snap Snapshot) {
	if err := e.bus.Publish(bus.NewEvent(EventModelChanged, eventSource, snap)); err != nil {
		e.logger.Warn("Model change observers failed", log.Error(err))
	}
}

func (e *Engine) publishField(change FieldChange) {
	if err := e.bus.Publish(bus.NewEvent(EventFieldChanged, eventSource, change)); err != nil {
		e.logger.Warn("Field change observers failed", log.Error(err))
	}
}
