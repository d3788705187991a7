package runner

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/cache"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/infracollect/wallboard/internal/render"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const (
	DefaultResolution = "1920x1080"
	DefaultColumns    = 3
	DefaultOutputPath = "~/.cache/wallboard/wallpaper.png"
	DefaultConfigPath = "config.yaml"
)

var (
	ErrNotAMapping = errors.New("config must contain a YAML mapping at top level")

	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// DefaultWidgets is the widget order used when the configuration names none.
func DefaultWidgets() []string {
	return []string{
		string(engine.KindClock),
		string(engine.KindWeather),
		string(engine.KindCalendar),
		string(engine.KindSystem),
	}
}

// ParseConfig parses a YAML or JSON configuration file and validates it. It
// does not apply defaults.
func ParseConfig(data []byte) (v1.Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return v1.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return v1.Config{}, ErrNotAMapping
	}

	var cfg v1.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return v1.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaultValidator.Struct(cfg); err != nil {
		return v1.Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills every unset top-level setting. Widget-specific defaults
// stay with the widgets.
func ApplyDefaults(cfg *v1.Config) error {
	if cfg.Resolution == "" {
		cfg.Resolution = DefaultResolution
	}
	if cfg.Columns == nil || *cfg.Columns == 0 {
		cfg.Columns = lo.ToPtr(DefaultColumns)
	}
	if cfg.Renderer.Kind == "" {
		cfg.Renderer.Kind = string(render.KindRaster)
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if len(cfg.Dashboard.Widgets) == 0 {
		cfg.Dashboard.Widgets = DefaultWidgets()
	}
	if cfg.Cache.Dir == "" {
		dir, err := cache.DefaultDir()
		if err != nil {
			return err
		}
		cfg.Cache.Dir = dir
	}
	return nil
}

// LoadConfig reads, validates and completes the configuration at path.
func LoadConfig(fs afero.Fs, path string, expander *Expander) (v1.Config, error) {
	path, err := expander.Expand(ExpandPath, path)
	if err != nil {
		return v1.Config{}, err
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return v1.Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return v1.Config{}, err
	}

	if err := ApplyDefaults(&cfg); err != nil {
		return v1.Config{}, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := ExpandFields(expander, &cfg); err != nil {
		return v1.Config{}, err
	}

	return cfg, nil
}
