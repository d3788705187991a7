package runner

import (
	"fmt"

	"github.com/infracollect/wallboard/internal/cache"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/infracollect/wallboard/internal/widgets/calendar"
	"github.com/infracollect/wallboard/internal/widgets/clock"
	"github.com/infracollect/wallboard/internal/widgets/system"
	"github.com/infracollect/wallboard/internal/widgets/weather"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by the built-in widgets.
type Dependencies struct {
	Fs        afero.Fs
	Clock     clockwork.Clock
	Store     *cache.Store
	HostStats system.HostStats

	WeatherOptions  []weather.Option
	CalendarOptions []calendar.Option
}

// BuildRegistry registers every built-in widget.
func BuildRegistry(logger *zap.Logger, deps Dependencies) (*engine.Registry, error) {
	registry := engine.NewRegistry(logger.Named("registry"))

	registrations := []struct {
		kind     engine.Kind
		register func() error
	}{
		{engine.KindClock, func() error {
			return clock.Register(registry, deps.Clock)
		}},
		{engine.KindWeather, func() error {
			return weather.Register(registry, deps.Store, logger.Named("weather"), deps.WeatherOptions...)
		}},
		{engine.KindCalendar, func() error {
			return calendar.Register(registry, deps.Fs, deps.Clock, logger.Named("calendar"), deps.CalendarOptions...)
		}},
		{engine.KindSystem, func() error {
			return system.Register(registry, deps.HostStats, logger.Named("system"))
		}},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return nil, fmt.Errorf("failed to register %s widget: %w", r.kind, err)
		}
	}

	return registry, nil
}
