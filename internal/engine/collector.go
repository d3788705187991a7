package engine

import (
	"context"

	v1 "github.com/infracollect/wallboard/apis/v1"
)

// Collector produces the payload of one widget for a collection cycle.
// Any failure is reported through the returned error; the pipeline turns it
// into a failed WidgetResult.
type Collector interface {
	Named
	Collect(ctx context.Context, cfg v1.Config) (Payload, error)
}

type CollectFunc func(ctx context.Context, cfg v1.Config) (Payload, error)

type collectorFunction struct {
	kind  Kind
	title string
	fn    CollectFunc
}

func (c *collectorFunction) Kind() Kind {
	return c.kind
}

func (c *collectorFunction) Title() string {
	return c.title
}

func (c *collectorFunction) Collect(ctx context.Context, cfg v1.Config) (Payload, error) {
	return c.fn(ctx, cfg)
}

// CollectorFunction adapts a plain function into a Collector.
func CollectorFunction(kind Kind, title string, fn CollectFunc) Collector {
	return &collectorFunction{kind: kind, title: title, fn: fn}
}
