package injector

import (
	"time"

	"github.com/google/wire"

	"github.com/zeusync/robonav/internal/config"
	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/events/bus"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
	"github.com/zeusync/robonav/internal/scenario"
	"github.com/zeusync/robonav/internal/server"
)

// slowDelivery is the bus latency above which deliveries are logged.
const slowDelivery = 5 * time.Millisecond

// App bundles the long-lived components a command needs.
type App struct {
	Config *config.Config
	Logger log.Log
	Engine *engine.Engine
	Runner *engine.Runner
}

// ProviderSet builds every component from a *config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideEngine,
	ProvideRunner,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.NewWithConfig(cfg.Log)
}

func ProvideBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger, slowDelivery))
	return b
}

func ProvideEngine(cfg *config.Config, logger log.Log, events bus.EventBus) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithBus(events),
		engine.WithGenerator(level.NewGenerator(cfg.Noise)),
		engine.WithFieldSize(cfg.Engine.FieldWidth, cfg.Engine.FieldHeight),
		engine.WithSpawn(physics.Vec2(cfg.Engine.SpawnX, cfg.Engine.SpawnY)),
		engine.WithDefaultMovement(cfg.Engine.Movement),
	}
	if cfg.Engine.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Engine.Seed))
	}
	if cfg.Engine.Fallback == movement.NameStraight {
		opts = append(opts, engine.WithAvoidanceOptions(movement.WithFallback(movement.NewStraightPursuit())))
	}
	return engine.New(opts...)
}

func ProvideRunner(cfg *config.Config, e *engine.Engine, logger log.Log) (*engine.Runner, error) {
	return engine.NewRunner(e, cfg.Engine.TickPeriod,
		engine.WithTickStep(cfg.Engine.TickStep),
		engine.WithRunnerLogger(logger))
}

// ProvideServer builds the session server around the app's engine.
func ProvideServer(app *App) (*server.Server, error) {
	sc := app.Config.Server
	return server.New(app.Engine, server.Config{
		Addr:            sc.Addr,
		CommandRate:     sc.CommandRate,
		CommandBurst:    sc.CommandBurst,
		MaxMessageBytes: sc.MaxMessageBytes,
		WriteTimeout:    sc.WriteTimeout,
		ShutdownTimeout: sc.ShutdownTimeout,
	}, app.Logger)
}

// ProvideScenarioRunner builds a scenario runner that shares the configured
// noise and field size but never the app's engine.
func ProvideScenarioRunner(cfg *config.Config, logger log.Log, extra ...scenario.Option) *scenario.Runner {
	opts := []engine.Option{
		engine.WithFieldSize(cfg.Engine.FieldWidth, cfg.Engine.FieldHeight),
	}
	if cfg.Engine.Fallback == movement.NameStraight {
		opts = append(opts, engine.WithAvoidanceOptions(movement.WithFallback(movement.NewStraightPursuit())))
	}
	return scenario.NewRunner(append([]scenario.Option{
		scenario.WithLogger(logger),
		scenario.WithNoise(cfg.Noise),
		scenario.WithEngineOptions(opts...),
	}, extra...)...)
}
