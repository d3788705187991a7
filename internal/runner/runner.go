package runner

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/cache"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/infracollect/wallboard/internal/render"
	"github.com/infracollect/wallboard/internal/sinks"
	"github.com/infracollect/wallboard/internal/wallpaper"
	"github.com/infracollect/wallboard/internal/widgets/system"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// WallpaperSetter installs a rendered image as the desktop background.
type WallpaperSetter interface {
	Set(ctx context.Context, imagePath string) error
}

// Runner executes render cycles: collect every configured widget, render the
// dashboard and optionally install the image as the wallpaper.
type Runner struct {
	logger    *zap.Logger
	cfg       v1.Config
	clock     clockwork.Clock
	pipeline  *engine.Pipeline
	renderer  render.Renderer
	theme     render.Theme
	width     int
	height    int
	wallpaper WallpaperSetter
}

type settings struct {
	clock         clockwork.Clock
	fs            afero.Fs
	registry      *engine.Registry
	hostStats     system.HostStats
	deps          func(*Dependencies)
	renderer      render.Renderer
	rendererKind  string
	renderOpts    []render.Option
	sink          render.Sink
	wallpaper     WallpaperSetter
	skipWallpaper bool
}

type Option func(*settings)

func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithFs sets the filesystem used for the cache, calendar files and output.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) {
		s.fs = fs
	}
}

// WithRegistry replaces the built-in widget registry.
func WithRegistry(registry *engine.Registry) Option {
	return func(s *settings) {
		s.registry = registry
	}
}

func WithHostStats(stats system.HostStats) Option {
	return func(s *settings) {
		s.hostStats = stats
	}
}

// WithDependencies adjusts the widget dependencies before the registry is
// built.
func WithDependencies(fn func(*Dependencies)) Option {
	return func(s *settings) {
		s.deps = fn
	}
}

func WithRenderer(renderer render.Renderer) Option {
	return func(s *settings) {
		s.renderer = renderer
	}
}

// WithRendererKind overrides the renderer configured in the file.
func WithRendererKind(kind string) Option {
	return func(s *settings) {
		s.rendererKind = kind
	}
}

func WithRendererOptions(opts ...render.Option) Option {
	return func(s *settings) {
		s.renderOpts = append(s.renderOpts, opts...)
	}
}

func WithSink(sink render.Sink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}

func WithWallpaperSetter(setter WallpaperSetter) Option {
	return func(s *settings) {
		s.wallpaper = setter
	}
}

// WithoutWallpaper never installs the wallpaper, whatever the configuration
// says.
func WithoutWallpaper() Option {
	return func(s *settings) {
		s.skipWallpaper = true
	}
}

// New builds a runner for a configuration that already went through
// LoadConfig (or ApplyDefaults).
func New(logger *zap.Logger, cfg v1.Config, opts ...Option) (*Runner, error) {
	s := &settings{
		clock: clockwork.NewRealClock(),
		fs:    afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}

	width, height, err := render.ParseResolution(cfg.Resolution)
	if err != nil {
		return nil, err
	}

	theme, err := render.ThemeFromSpec(cfg.Theme)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve theme: %w", err)
	}

	registry := s.registry
	if registry == nil {
		registry, err = buildDefaultRegistry(logger, cfg, s)
		if err != nil {
			return nil, err
		}
	}

	renderer := s.renderer
	if renderer == nil {
		kind := lo.CoalesceOrEmpty(s.rendererKind, cfg.Renderer.Kind, string(render.KindRaster))
		sink := s.sink
		if sink == nil {
			sink = sinks.NewFilesystemSink(s.fs)
		}
		renderOpts := append([]render.Option{
			render.WithLogger(logger.Named("render")),
			render.WithWebConfig(cfg.WebRenderer),
		}, s.renderOpts...)

		renderer, err = render.New(kind, sink, renderOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
	}

	var setter WallpaperSetter
	if cfg.Output.SetGnomeWallpaper && !s.skipWallpaper {
		setter = s.wallpaper
		if setter == nil {
			setter = wallpaper.NewGnomeSetter(logger.Named("wallpaper"))
		}
	}

	logger.Info("created runner",
		zap.String("renderer", string(renderer.Kind())),
		zap.String("resolution", cfg.Resolution),
		zap.Strings("widgets", cfg.Dashboard.Widgets),
		zap.Bool("set_wallpaper", setter != nil),
	)

	return &Runner{
		logger:    logger,
		cfg:       cfg,
		clock:     s.clock,
		pipeline:  engine.NewPipeline(registry, logger.Named("pipeline"), engine.WithClock(s.clock)),
		renderer:  renderer,
		theme:     theme,
		width:     width,
		height:    height,
		wallpaper: setter,
	}, nil
}

func buildDefaultRegistry(logger *zap.Logger, cfg v1.Config, s *settings) (*engine.Registry, error) {
	deps := Dependencies{
		Fs:    s.fs,
		Clock: s.clock,
		Store: cache.NewStore(s.fs, cfg.Cache.Dir,
			cache.WithClock(s.clock),
			cache.WithLogger(logger.Named("cache")),
		),
		HostStats: s.hostStats,
	}
	if deps.HostStats == nil {
		deps.HostStats = system.NewHostStats()
	}
	if s.deps != nil {
		s.deps(&deps)
	}
	return BuildRegistry(logger, deps)
}

// RunOnce runs one cycle and returns the path of the written image. Widget
// failures end up in the image; renderer and wallpaper failures are returned.
func (r *Runner) RunOnce(ctx context.Context) (string, error) {
	dashboard := r.pipeline.Collect(ctx, r.cfg, r.cfg.Dashboard.Widgets)

	path, err := r.renderer.Render(ctx, render.Request{
		Dashboard:  dashboard,
		Width:      r.width,
		Height:     r.height,
		Columns:    lo.FromPtrOr(r.cfg.Columns, DefaultColumns),
		Theme:      r.theme,
		OutputPath: r.cfg.Output.Path,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render dashboard: %w", err)
	}

	if r.wallpaper != nil {
		if err := r.wallpaper.Set(ctx, path); err != nil {
			return path, fmt.Errorf("failed to set wallpaper: %w", err)
		}
		r.logger.Info("wallpaper updated", zap.String("path", path))
	}

	return path, nil
}

// RunEvery runs a cycle immediately and then once per interval until ctx is
// done. A failed cycle is logged and the loop carries on.
func (r *Runner) RunEvery(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	r.runLogged(ctx)

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping interval mode")
			return nil
		case <-ticker.Chan():
			r.runLogged(ctx)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context) {
	start := r.clock.Now()
	path, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error("render cycle failed", zap.Error(err))
		return
	}
	r.logger.Info("render cycle completed",
		zap.String("path", path),
		zap.Duration("duration", r.clock.Since(start).Round(time.Millisecond)),
	)
}
