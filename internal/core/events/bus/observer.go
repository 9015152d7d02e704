package bus

import (
	"time"

	"github.com/zeusync/robonav/internal/core/observability/log"
)

// LogObserver logs failed and slow deliveries.
type LogObserver struct {
	logger log.Log
	slow   time.Duration
}

// NewLogObserver logs deliveries slower than slow at warn level and handler
// errors at error level. A zero slow disables the latency check.
func NewLogObserver(logger log.Log, slow time.Duration) *LogObserver {
	return &LogObserver{logger: logger.With(log.String("component", "bus")), slow: slow}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		o.logger.Error("Event handlers failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
		return
	}
	if o.slow > 0 && duration > o.slow {
		o.logger.Warn("Slow event delivery",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Duration("duration", duration))
	}
}
