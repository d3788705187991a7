package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	Title = "Today"

	SourceICS    = "ics"
	SourceCalDAV = "caldav"

	defaultHorizon   = 12 * time.Hour
	defaultMaxEvents = 5
	defaultTimeout   = 15 * time.Second

	// CalDAV queries look one day either side of now.
	queryWindow = 24 * time.Hour
)

var ErrMissingCalDAVCredentials = errors.New("CalDAV configured but missing url/username/password")

// SourceFactory builds the event source for a configuration.
type SourceFactory func(spec v1.CalendarSpec) (EventSource, error)

type Collector struct {
	fs        afero.Fs
	clock     clockwork.Clock
	logger    *zap.Logger
	newSource SourceFactory
}

type Option func(*Collector)

func WithSourceFactory(factory SourceFactory) Option {
	return func(c *Collector) {
		c.newSource = factory
	}
}

func New(fs afero.Fs, clock clockwork.Clock, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		fs:     fs,
		clock:  clock,
		logger: logger,
	}
	c.newSource = c.defaultSource
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Register(registry *engine.Registry, fs afero.Fs, clock clockwork.Clock, logger *zap.Logger, opts ...Option) error {
	return registry.Register(New(fs, clock, logger, opts...))
}

func (c *Collector) Kind() engine.Kind {
	return engine.KindCalendar
}

func (c *Collector) Title() string {
	return Title
}

func (c *Collector) Collect(ctx context.Context, cfg v1.Config) (engine.Payload, error) {
	spec := cfg.Calendar

	horizon := defaultHorizon
	if spec.HorizonHours != nil {
		horizon = time.Duration(*spec.HorizonHours) * time.Hour
	}
	maxEvents := defaultMaxEvents
	if spec.MaxEvents != nil {
		maxEvents = max(0, *spec.MaxEvents)
	}

	source, err := c.newSource(spec)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now().Local()
	events, err := source.Events(ctx, now.Add(-queryWindow), now.Add(queryWindow))
	if err != nil {
		return nil, err
	}

	upcoming := Upcoming(events, now, now.Add(horizon), maxEvents)
	c.logger.Debug("loaded calendar events", zap.Int("total", len(events)), zap.Int("upcoming", len(upcoming)))

	data := engine.CalendarData{Events: make([]engine.EventData, 0, len(upcoming))}
	for _, ev := range upcoming {
		data.Events = append(data.Events, engine.EventData{
			Time:    ev.Start.In(now.Location()).Format("15:04"),
			Summary: ev.Summary,
		})
	}
	return data, nil
}

// Upcoming keeps the events starting within [from, to], sorted by start time
// and truncated to limit.
func Upcoming(events []Event, from, to time.Time, limit int) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Start.Before(from) || ev.Start.After(to) {
			continue
		}
		out = append(out, ev)
	}

	slices.SortStableFunc(out, func(a, b Event) int {
		return a.Start.Compare(b.Start)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Collector) defaultSource(spec v1.CalendarSpec) (EventSource, error) {
	source := strings.ToLower(strings.TrimSpace(spec.Source))
	switch source {
	case "", SourceICS:
		return NewICSSource(c.fs, spec.ICSPath), nil
	case SourceCalDAV:
		url := strings.TrimSpace(spec.CalDAVURL)
		username := strings.TrimSpace(spec.CalDAVUsername)
		password := strings.TrimSpace(spec.CalDAVPassword)
		if url == "" || username == "" || password == "" {
			return nil, ErrMissingCalDAVCredentials
		}

		timeout := defaultTimeout
		if spec.TimeoutSeconds != nil {
			timeout = time.Duration(*spec.TimeoutSeconds) * time.Second
		}
		return NewCalDAVSource(url, username, password, timeout), nil
	default:
		return nil, fmt.Errorf("unknown calendar.source: %s", source)
	}
}
