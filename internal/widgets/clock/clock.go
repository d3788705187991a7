package clock

import (
	"context"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/jonboulle/clockwork"
)

const (
	Title = "Time"

	DefaultTimeFormat = "15:04"
	DefaultDateFormat = "Mon Jan 02, 2006"
)

// New returns the clock collector. It never fails.
func New(clock clockwork.Clock) engine.Collector {
	return engine.CollectorFunction(engine.KindClock, Title, func(_ context.Context, cfg v1.Config) (engine.Payload, error) {
		now := clock.Now().Local()

		timeFormat := cfg.Clock.TimeFormat
		if timeFormat == "" {
			timeFormat = DefaultTimeFormat
		}
		dateFormat := cfg.Clock.DateFormat
		if dateFormat == "" {
			dateFormat = DefaultDateFormat
		}

		return engine.ClockData{
			Time: now.Format(timeFormat),
			Date: now.Format(dateFormat),
		}, nil
	})
}

func Register(registry *engine.Registry, clock clockwork.Clock) error {
	return registry.Register(New(clock))
}
