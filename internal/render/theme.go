package render

import (
	"errors"
	"fmt"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultBackground    = "#020402"
	DefaultForeground    = "#00ff66"
	DefaultForegroundDim = "#00aa44"
	DefaultPanelBorder   = "#00aa44"
	DefaultAlert         = "#ff3355"
	DefaultFontFamily    = "DejaVuSansMono"
)

// Theme holds the resolved colors and font selection shared by the renderers.
type Theme struct {
	Background    colorful.Color
	Foreground    colorful.Color
	ForegroundDim colorful.Color
	PanelBorder   colorful.Color
	Alert         colorful.Color
	FontFamily    string
	FontPath      string
}

// DefaultTheme is the green-on-black terminal look.
func DefaultTheme() Theme {
	theme, _ := ThemeFromSpec(v1.ThemeSpec{})
	return theme
}

// ThemeFromSpec resolves a theme, filling unset values with defaults.
func ThemeFromSpec(spec v1.ThemeSpec) (Theme, error) {
	var errs []error
	parse := func(field, value, fallback string) colorful.Color {
		if value == "" {
			value = fallback
		}
		c, err := colorful.Hex(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid theme.%s %q: %w", field, value, err))
		}
		return c
	}

	theme := Theme{
		Background:    parse("background", spec.Background, DefaultBackground),
		Foreground:    parse("foreground", spec.Foreground, DefaultForeground),
		ForegroundDim: parse("foreground_dim", spec.ForegroundDim, DefaultForegroundDim),
		PanelBorder:   parse("panel_border", spec.PanelBorder, DefaultPanelBorder),
		Alert:         parse("alert", spec.Alert, DefaultAlert),
		FontFamily:    spec.FontFamily,
		FontPath:      spec.FontPath,
	}
	if theme.FontFamily == "" {
		theme.FontFamily = DefaultFontFamily
	}

	if err := errors.Join(errs...); err != nil {
		return Theme{}, err
	}
	return theme, nil
}

// glow returns c as an rgba() CSS color with the given alpha.
func glow(c colorful.Color, alpha float64) string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", r, g, b, alpha)
}
