package engine

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Pipeline collects the configured widgets in order. A widget failure never
// aborts the cycle: every requested name yields exactly one result.
type Pipeline struct {
	registry *Registry
	logger   *zap.Logger
	clock    clockwork.Clock
}

type PipelineOption func(*Pipeline)

func WithClock(clock clockwork.Clock) PipelineOption {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

func NewPipeline(registry *Registry, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry: registry,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collect runs every widget in order, one at a time.
func (p *Pipeline) Collect(ctx context.Context, cfg v1.Config, order []string) Dashboard {
	dashboard := Dashboard{
		Results:     make([]WidgetResult, 0, len(order)),
		CollectedAt: p.clock.Now(),
	}

	for _, name := range order {
		dashboard.Results = append(dashboard.Results, p.collectOne(ctx, cfg, name))
	}

	p.logger.Info("collected dashboard",
		zap.Int("widgets", len(dashboard.Results)),
		zap.Int("failed", dashboard.FailedCount()),
	)

	return dashboard
}

func (p *Pipeline) collectOne(ctx context.Context, cfg v1.Config, name string) (result WidgetResult) {
	collector, ok := p.registry.Lookup(name)
	if !ok {
		p.logger.Warn("unknown widget", zap.String("widget", name))
		return Failed(name, name, UnknownWidgetMessage)
	}

	title := collector.Title()
	if title == "" {
		title = name
	}
	logger := p.logger.With(zap.String("widget", name))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("collector panicked", zap.Any("panic", rec), zap.Stack("stack"))
			result = Failed(name, title, fmt.Sprint(rec))
		}
	}()

	start := p.clock.Now()
	data, err := collector.Collect(ctx, cfg)
	duration := p.clock.Since(start)
	if err != nil {
		logger.Warn("widget collection failed", zap.Error(err), zap.Duration("duration", duration))
		return Failed(name, title, err.Error())
	}

	logger.Debug("widget collected", zap.Duration("duration", duration.Round(time.Millisecond)))
	return WidgetResult{
		Name:  name,
		Title: title,
		Data:  data,
		OK:    true,
	}
}
