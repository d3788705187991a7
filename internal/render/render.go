// Package render draws a collected dashboard into a PNG image of an exact
// resolution. Two backends exist: a pure Go raster renderer and a headless
// browser renderer. Both use the shared grid layout and line formatter.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Kind string

const (
	KindRaster  Kind = "raster"
	KindBrowser Kind = "browser"
)

var kindAliases = map[string]Kind{
	"raster":  KindRaster,
	"pillow":  KindRaster,
	"browser": KindBrowser,
	"web":     KindBrowser,
}

// UnsupportedKindError is returned for renderer kinds that do not exist.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported renderer kind %q (expected raster or browser)", e.Kind)
}

// ParseKind resolves a configured renderer name, accepting aliases.
func ParseKind(name string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedKindError{Kind: name}
	}
	return kind, nil
}

// Sink receives rendered artifacts.
type Sink interface {
	Write(ctx context.Context, path string, data io.Reader) error
}

// Request is everything a renderer needs for one image.
type Request struct {
	Dashboard  engine.Dashboard
	Width      int
	Height     int
	Columns    int
	Theme      Theme
	OutputPath string
}

func (r Request) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", r.Width, r.Height)
	}
	if r.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}

// Renderer writes the dashboard image to Request.OutputPath and returns that
// path.
type Renderer interface {
	Kind() Kind
	Render(ctx context.Context, req Request) (string, error)
}

type options struct {
	logger        *zap.Logger
	fontFs        afero.Fs
	fontDirs      []string
	web           v1.WebRendererSpec
	screenshotter Screenshotter
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFontFs sets the filesystem searched for fonts.
func WithFontFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fontFs = fs
	}
}

// WithFontDirs replaces the directories searched for font families.
func WithFontDirs(dirs ...string) Option {
	return func(o *options) {
		o.fontDirs = dirs
	}
}

func WithWebConfig(spec v1.WebRendererSpec) Option {
	return func(o *options) {
		o.web = spec
	}
}

// WithScreenshotter replaces the browser used by the browser renderer.
func WithScreenshotter(s Screenshotter) Option {
	return func(o *options) {
		o.screenshotter = s
	}
}

// New builds the renderer for kind.
func New(kind string, sink Sink, opts ...Option) (Renderer, error) {
	parsed, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	o := &options{
		logger:   zap.NewNop(),
		fontFs:   afero.NewOsFs(),
		fontDirs: DefaultFontDirs(),
	}
	for _, opt := range opts {
		opt(o)
	}

	switch parsed {
	case KindRaster:
		return NewRasterRenderer(sink, NewFontLoader(o.fontFs, o.fontDirs, o.logger), o.logger), nil
	case KindBrowser:
		renderer, err := NewBrowserRenderer(sink, o.web, o.screenshotter, o.logger)
		if err != nil {
			return nil, err
		}
		return renderer, nil
	default:
		return nil, &UnsupportedKindError{Kind: kind}
	}
}

// Render is a convenience for New followed by Render.
func Render(ctx context.Context, kind string, sink Sink, req Request, opts ...Option) (string, error) {
	renderer, err := New(kind, sink, opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(ctx, req)
}

// SupportedResolutions lists the accepted output sizes.
var SupportedResolutions = []string{"1920x1080", "3840x2160", "2560x1600"}

// ParseResolution parses a WIDTHxHEIGHT string.
func ParseResolution(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid resolution %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution height %q", h)
	}
	return width, height, nil
}
