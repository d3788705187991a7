package engine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// UnknownWidgetError is returned when a widget name has no registered collector.
type UnknownWidgetError struct {
	Name      string   // the requested widget name
	Available []string // registered widget kinds
}

func (e *UnknownWidgetError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown widget %q: no widgets registered", e.Name)
	}
	return fmt.Sprintf("unknown widget %q (available: %v)", e.Name, e.Available)
}

// Registry maps widget kinds to their collectors. It only accepts the kinds
// enumerated by Kinds, one collector per kind.
type Registry struct {
	mu         sync.RWMutex
	collectors map[Kind]Collector
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		collectors: make(map[Kind]Collector),
		logger:     logger,
	}
}

func (r *Registry) Register(collector Collector) error {
	kind := collector.Kind()
	if _, ok := ParseKind(string(kind)); !ok {
		return fmt.Errorf("cannot register collector for unknown widget kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collectors[kind]; ok {
		return fmt.Errorf("collector for widget %q already registered", kind)
	}
	r.collectors[kind] = collector

	r.logger.Debug("registered collector", zap.String("widget", string(kind)), zap.String("title", collector.Title()))
	return nil
}

// Lookup returns the collector for a configured widget name.
func (r *Registry) Lookup(name string) (Collector, bool) {
	kind, ok := ParseKind(name)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	collector, ok := r.collectors[kind]
	return collector, ok
}

// Get is like Lookup but returns an *UnknownWidgetError for unknown names.
func (r *Registry) Get(name string) (Collector, error) {
	collector, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownWidgetError{Name: name, Available: r.Available()}
	}
	return collector, nil
}

func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := lo.Map(lo.Keys(r.collectors), func(k Kind, _ int) string { return string(k) })
	slices.Sort(available)
	return available
}
