package v1

import (
	"fmt"
	"strings"
)

// Config is the top-level wallboard configuration file.
type Config struct {
	// Resolution is the output image size, e.g. "1920x1080".
	Resolution string `yaml:"resolution" json:"resolution" validate:"omitempty,oneof=1920x1080 3840x2160 2560x1600"`

	// Columns is the number of grid columns (default: 3).
	Columns *int `yaml:"columns,omitempty" json:"columns,omitempty" validate:"omitempty,gte=0"`

	Output      OutputSpec      `yaml:"output" json:"output"`
	Renderer    RendererSpec    `yaml:"renderer" json:"renderer"`
	Dashboard   DashboardSpec   `yaml:"dashboard" json:"dashboard"`
	Theme       ThemeSpec       `yaml:"theme" json:"theme"`
	WebRenderer WebRendererSpec `yaml:"web_renderer" json:"web_renderer"`
	Cache       CacheSpec       `yaml:"cache" json:"cache"`

	Clock    ClockSpec    `yaml:"clock" json:"clock"`
	System   SystemSpec   `yaml:"system" json:"system"`
	Weather  WeatherSpec  `yaml:"weather" json:"weather"`
	Calendar CalendarSpec `yaml:"calendar" json:"calendar"`
}

// OutputSpec configures where the generated image is written.
type OutputSpec struct {
	// Path is the PNG path (default: ~/.cache/wallboard/wallpaper.png).
	Path string `yaml:"path" json:"path" expand:"path"`

	// SetGnomeWallpaper installs the image as the GNOME desktop background.
	SetGnomeWallpaper bool `yaml:"set_gnome_wallpaper" json:"set_gnome_wallpaper"`
}

// RendererSpec selects the renderer backend.
type RendererSpec struct {
	// Kind is one of "raster" (alias "pillow") or "browser" (alias "web").
	Kind string `yaml:"kind" json:"kind" validate:"omitempty,oneof=raster pillow browser web"`
}

// DashboardSpec lists the widgets in render order.
type DashboardSpec struct {
	Widgets []string `yaml:"widgets" json:"widgets"`
}

// ThemeSpec holds the renderer style parameters. Empty values use defaults.
type ThemeSpec struct {
	Background    string `yaml:"background" json:"background" validate:"omitempty,hexcolor"`
	Foreground    string `yaml:"foreground" json:"foreground" validate:"omitempty,hexcolor"`
	ForegroundDim string `yaml:"foreground_dim" json:"foreground_dim" validate:"omitempty,hexcolor"`
	PanelBorder   string `yaml:"panel_border" json:"panel_border" validate:"omitempty,hexcolor"`
	Alert         string `yaml:"alert" json:"alert" validate:"omitempty,hexcolor"`
	FontFamily    string `yaml:"font_family" json:"font_family"`
	FontPath      string `yaml:"font_path" json:"font_path" expand:"path"`
}

// WebRendererSpec configures the headless browser backend.
type WebRendererSpec struct {
	// Browser is the engine to launch; only chromium-based browsers are supported.
	Browser  string `yaml:"browser" json:"browser"`
	Headless *bool  `yaml:"headless,omitempty" json:"headless,omitempty"`

	// DeviceScaleFactor is applied to the viewport. The captured image is
	// resampled back to the configured resolution.
	DeviceScaleFactor float64 `yaml:"viewport_device_scale_factor" json:"viewport_device_scale_factor" validate:"gte=0"`

	// ExecPath overrides the browser executable.
	ExecPath string `yaml:"exec_path" json:"exec_path" expand:"path"`

	// SettleMillis is how long to wait after loading the document (default: 250).
	SettleMillis int `yaml:"settle_ms" json:"settle_ms" validate:"gte=0"`

	// TimeoutSeconds bounds a whole browser render (default: 60).
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
}

// CacheSpec configures the response cache.
type CacheSpec struct {
	// Dir is the cache directory (default: <user cache dir>/wallboard).
	Dir string `yaml:"dir" json:"dir" expand:"path"`
}

// ClockSpec configures the clock widget.
type ClockSpec struct {
	TimeFormat string `yaml:"time_format" json:"time_format"`
	DateFormat string `yaml:"date_format" json:"date_format"`
}

// SystemSpec configures the system widget.
type SystemSpec struct {
	// Mounts are the mount points to report (default: "/" and "/home").
	Mounts []string `yaml:"mounts" json:"mounts"`
}

// WeatherSpec configures the weather widget.
type WeatherSpec struct {
	ZipCode ZipCode `yaml:"zip_code" json:"zip_code"`

	// Units is "imperial" (default) or "metric".
	Units string `yaml:"units" json:"units"`

	// CacheExpireSeconds is the forecast cache TTL (default: 3600).
	CacheExpireSeconds *int `yaml:"cache_expire_seconds,omitempty" json:"cache_expire_seconds,omitempty"`

	// TimeoutSeconds bounds each upstream request (default: 10).
	TimeoutSeconds *int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`

	GeocodeURL  string `yaml:"geocode_url" json:"geocode_url"`
	ForecastURL string `yaml:"forecast_url" json:"forecast_url"`
}

// CalendarSpec configures the calendar widget.
type CalendarSpec struct {
	// Source is "ics" (default) or "caldav".
	Source string `yaml:"source" json:"source"`

	ICSPath string `yaml:"ics_path" json:"ics_path" expand:"path"`

	// The CalDAV settings may reference environment variables, e.g.
	// caldav_password: $CALDAV_PASSWORD.
	CalDAVURL      string `yaml:"caldav_url" json:"caldav_url" expand:"env"`
	CalDAVUsername string `yaml:"caldav_username" json:"caldav_username" expand:"env"`
	CalDAVPassword string `yaml:"caldav_password" json:"caldav_password" expand:"env"`

	// HorizonHours is the look-ahead window (default: 12).
	HorizonHours *int `yaml:"horizon_hours,omitempty" json:"horizon_hours,omitempty"`

	// MaxEvents caps the number of events shown (default: 5).
	MaxEvents *int `yaml:"max_events,omitempty" json:"max_events,omitempty"`

	// TimeoutSeconds bounds CalDAV requests (default: 15).
	TimeoutSeconds *int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// ZipCode is a US postal code. Unquoted integers in YAML are accepted and
// zero-padded to five digits.
type ZipCode string

func (z *ZipCode) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*z = ""
	case string:
		*z = ZipCode(strings.TrimSpace(v))
	case int:
		*z = ZipCode(fmt.Sprintf("%05d", v))
	case int64:
		*z = ZipCode(fmt.Sprintf("%05d", v))
	case uint64:
		*z = ZipCode(fmt.Sprintf("%05d", v))
	default:
		return fmt.Errorf("zip_code must be a string or integer, got %T", raw)
	}
	return nil
}
